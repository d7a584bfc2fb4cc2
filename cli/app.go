// Package cli contains the boxproject command line app.
package cli

import (
	"io"

	"github.com/urfave/cli/v2"
)

const (
	// Flags.
	generalFlagDebug       = "debug"
	generalFlagCalibration = "calibration"
	generalFlagStrict      = "strict"
	generalFlagOut         = "out"

	projectFlagDetections = "detections"
	projectFlagRender     = "render"
	projectFlagBackground = "background"
	projectFlagWidth      = "width"
	projectFlagHeight     = "height"
	projectFlagAnnotate   = "annotate"
	projectFlagBounds     = "bounds"

	inspectFlagFrame = "frame"
	inspectFlagIndex = "index"

	convertFlagPoints = "points"
	convertFlagFrom   = "from"
	convertFlagTo     = "to"

	frameSensor = "sensor"
	frameCamera = "camera"
	frameImage  = "image"
)

var calibrationFlag = &cli.StringFlag{
	Name:    generalFlagCalibration,
	Aliases: []string{"c"},
	Usage:   "calibration JSON `FILE` with vel2cam and/or cam2img",
}

var strictFlag = &cli.BoolFlag{
	Name:  generalFlagStrict,
	Usage: "fail on non-positive box sizes and points behind the camera",
}

var outFlag = &cli.StringFlag{
	Name:    generalFlagOut,
	Aliases: []string{"o"},
	Usage:   "write JSON output to `FILE` instead of stdout",
}

var app = &cli.App{
	Name:            "boxproject",
	Usage:           "project 3D detections and points between sensor, camera and image frames",
	HideHelpCommand: true,
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:    generalFlagDebug,
			Aliases: []string{"vvv"},
			Usage:   "enable debug logging",
		},
	},
	Commands: []*cli.Command{
		{
			Name:      "project",
			Usage:     "project detected boxes onto the image plane",
			UsageText: "boxproject project --detections <file> [--calibration <file>] [other options]",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     projectFlagDetections,
					Aliases:  []string{"d"},
					Required: true,
					Usage:    "detections JSON `FILE` (one frame or a list of frames)",
				},
				calibrationFlag,
				strictFlag,
				outFlag,
				&cli.StringFlag{
					Name:  projectFlagRender,
					Usage: "draw wireframes into PNG `FILE`; frames after the first get a -N suffix",
				},
				&cli.StringFlag{
					Name:  projectFlagBackground,
					Usage: "image `FILE` to draw on instead of a blank canvas",
				},
				&cli.IntFlag{
					Name:  projectFlagWidth,
					Value: 1242,
					Usage: "canvas width when no background is given",
				},
				&cli.IntFlag{
					Name:  projectFlagHeight,
					Value: 375,
					Usage: "canvas height when no background is given",
				},
				&cli.BoolFlag{
					Name:  projectFlagAnnotate,
					Usage: "write label and score next to each box",
				},
				&cli.BoolFlag{
					Name:  projectFlagBounds,
					Usage: "also draw the 2D bounding rectangle of each box",
				},
			},
			Action: ProjectAction,
		},
		{
			Name:      "inspect",
			Usage:     "dump the derived fields of one detected box",
			UsageText: "boxproject inspect --detections <file> [--frame <n>] --index <i>",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     projectFlagDetections,
					Aliases:  []string{"d"},
					Required: true,
					Usage:    "detections JSON `FILE`",
				},
				&cli.IntFlag{
					Name:  inspectFlagFrame,
					Usage: "frame number within the detections file",
				},
				&cli.IntFlag{
					Name:  inspectFlagIndex,
					Usage: "box index within the frame",
				},
				outFlag,
			},
			Action: InspectAction,
		},
		{
			Name:      "convert",
			Usage:     "convert points between frames",
			UsageText: "boxproject convert --calibration <file> --points <file> --from sensor --to image",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     generalFlagCalibration,
					Aliases:  []string{"c"},
					Required: true,
					Usage:    "calibration JSON `FILE`",
				},
				&cli.StringFlag{
					Name:     convertFlagPoints,
					Aliases:  []string{"p"},
					Required: true,
					Usage:    "JSON `FILE` holding a list of [x, y, z] points",
				},
				&cli.StringFlag{
					Name:  convertFlagFrom,
					Value: frameSensor,
					Usage: "frame of the input points: sensor or camera",
				},
				&cli.StringFlag{
					Name:  convertFlagTo,
					Value: frameImage,
					Usage: "frame of the output points: camera or image",
				},
				strictFlag,
				outFlag,
			},
			Action: ConvertAction,
		},
	},
}

// NewApp returns a new app with the CLI API, Writer set to out, and ErrWriter
// set to errOut.
func NewApp(out, errOut io.Writer) *cli.App {
	app.Writer = out
	app.ErrWriter = errOut
	return app
}
