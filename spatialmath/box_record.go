package spatialmath

// BoxRecord is a flat snapshot of one box for offline inspection. The key names match the
// prediction dumps produced by the detection tooling.
type BoxRecord struct {
	// Tensor is (x, y, z, w, h, l, yaw).
	Tensor        [7]float64    `json:"tensor"`
	Height        float64       `json:"height"`
	Yaw           float64       `json:"yaw"`
	LocalYaw      float64       `json:"local_yaw"`
	Center        [3]float64    `json:"center"`
	GravityCenter [3]float64    `json:"gravity_center"`
	BottomCenter  [3]float64    `json:"bottom_center"`
	BottomHeight  float64       `json:"bottom_height"`
	TopHeight     float64       `json:"top_height"`
	Corners       [8][3]float64 `json:"corners"`
	Dims          [3]float64    `json:"dims"`
	Volume        float64       `json:"volume"`
}

// NewBoxRecord derives every record field from the box.
func NewBoxRecord(b Box3D) BoxRecord {
	bottom := [3]float64{b.Center.X, b.Center.Y, b.Center.Z}
	g := b.GravityCenter()
	rec := BoxRecord{
		Tensor:        [7]float64{b.Center.X, b.Center.Y, b.Center.Z, b.Width, b.Height, b.Length, b.Yaw},
		Height:        b.Height,
		Yaw:           b.Yaw,
		LocalYaw:      b.LocalYaw(),
		Center:        bottom,
		GravityCenter: [3]float64{g.X, g.Y, g.Z},
		BottomCenter:  bottom,
		BottomHeight:  b.Center.Y,
		TopHeight:     b.Center.Y - b.Height,
		Dims:          [3]float64{b.Width, b.Height, b.Length},
		Volume:        b.Volume(),
	}
	for i, c := range b.Corners() {
		rec.Corners[i] = [3]float64{c.X, c.Y, c.Z}
	}
	return rec
}
