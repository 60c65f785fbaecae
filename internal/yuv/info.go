package yuv

// Info is the exported, serializable view of a descriptor.
type Info struct {
	Format     string  `json:"fmt"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	BitDepth   int     `json:"nbit"`
	ActiveBits int     `json:"nlsb"`
	Tiled      bool    `json:"tiled"`
	Tile       string  `json:"tile,omitempty"`
	YStride    int     `json:"y_stride"`
	UVStride   int     `json:"uv_stride"`
	YSize      int     `json:"y_size"`
	UVSize     int     `json:"uv_size"`
	IOSize     int     `json:"io_size"`
	BufSize    int     `json:"buf_size"`
	Planes     []Plane `json:"planes"`
}

// Info describes s.
func (s *Seq) Info() Info {
	in := Info{
		Format:     s.Format.String(),
		Width:      s.Width,
		Height:     s.Height,
		BitDepth:   s.BitDepth,
		ActiveBits: s.ActiveBits,
		Tiled:      s.Tiled,
		YStride:    s.YStride,
		UVStride:   s.UVStride,
		YSize:      s.YSize,
		UVSize:     s.UVSize,
		IOSize:     s.IOSize,
		BufSize:    len(s.Buf),
		Planes:     s.Planes(),
	}
	if s.Tiled {
		in.Tile = s.Tile.String()
	}
	return in
}
