// Package rtpraw carries uncompressed 8-bit UYVY frames over RTP using the
// RFC 4175 payload format.
package rtpraw

import (
	"encoding/binary"
	"fmt"

	"github.com/pion/rtp"

	"yuvtool/internal/yuv"
)

const (
	// ClockRate is the RTP clock of RFC 4175 video.
	ClockRate = 90000

	// DefaultMTU is the packet size budget, RTP header included.
	DefaultMTU = 1200

	rtpHeaderLen  = 12
	extSeqLen     = 2
	lineHeaderLen = 6
	pgroup        = 4 // bytes carrying 2 pixels of 8-bit 4:2:2
)

// Timestamp is the RTP timestamp of frame n at fps frames per second.
func Timestamp(n int, fps float64) uint32 {
	if fps <= 0 {
		return 0
	}
	return uint32(float64(n) * ClockRate / fps)
}

func checkFrame(op string, s *yuv.Seq) error {
	if s.Format != yuv.FormatUYVY || s.BitDepth != 8 || s.Tiled {
		return yuv.NewError(yuv.KindUnsupportedFormat, op,
			fmt.Sprintf("want raster 8-bit uyvy, got %s", s))
	}
	return s.CheckBuffer(op)
}

// Packetizer splits frames into RTP packets. It keeps the sequence number
// state of one stream and is not safe for concurrent use.
type Packetizer struct {
	MTU         int
	PayloadType uint8
	SSRC        uint32
	seq         rtp.Sequencer
}

// NewPacketizer starts a stream with a random initial sequence number.
// mtu <= 0 selects DefaultMTU.
func NewPacketizer(mtu int, payloadType uint8, ssrc uint32) *Packetizer {
	return NewPacketizerWithSequencer(mtu, payloadType, ssrc, rtp.NewRandomSequencer())
}

// NewPacketizerWithSequencer is NewPacketizer with a caller-chosen
// sequencer.
func NewPacketizerWithSequencer(mtu int, payloadType uint8, ssrc uint32, seq rtp.Sequencer) *Packetizer {
	if mtu <= 0 {
		mtu = DefaultMTU
	}
	return &Packetizer{MTU: mtu, PayloadType: payloadType, SSRC: ssrc, seq: seq}
}

type segment struct {
	line, offset int // offset in pixels
	data         []byte
}

// Packetize returns the packets of one frame. Each packet holds as many
// line segments as fit the MTU; the last packet has the marker bit set.
func (p *Packetizer) Packetize(frame *yuv.Seq, timestamp uint32) ([]*rtp.Packet, error) {
	const op = "packetize"
	if err := checkFrame(op, frame); err != nil {
		return nil, err
	}
	budget := p.MTU - rtpHeaderLen - extSeqLen
	if budget < lineHeaderLen+pgroup {
		return nil, yuv.NewError(yuv.KindInvalidGeometry, op, fmt.Sprintf("mtu %d too small", p.MTU))
	}
	if frame.Height > 1<<15 || frame.Width > 1<<15 {
		return nil, yuv.NewError(yuv.KindInvalidGeometry, op, "frame exceeds 15-bit line or offset")
	}

	pl := frame.Planes()[0]
	lineBytes := 2 * frame.Width
	var (
		out  []*rtp.Packet
		segs []segment
		used int
	)
	flush := func(last bool) {
		out = append(out, p.packet(segs, timestamp, last))
		segs, used = segs[:0], 0
	}
	for y := 0; y < frame.Height; y++ {
		row := frame.Buf[pl.Offset+y*pl.Stride:][:lineBytes]
		for x := 0; x < lineBytes; {
			room := (budget - used - lineHeaderLen) / pgroup * pgroup
			if room <= 0 {
				flush(false)
				continue
			}
			n := min(room, lineBytes-x)
			segs = append(segs, segment{line: y, offset: x / 2, data: row[x : x+n]})
			used += lineHeaderLen + n
			x += n
		}
	}
	flush(true)
	return out, nil
}

func (p *Packetizer) packet(segs []segment, ts uint32, marker bool) *rtp.Packet {
	size := extSeqLen
	for _, s := range segs {
		size += lineHeaderLen + len(s.data)
	}
	payload := make([]byte, size)
	seq := p.seq.NextSequenceNumber()
	binary.BigEndian.PutUint16(payload, uint16(p.seq.RollOverCount()))

	off := extSeqLen
	for i, s := range segs {
		binary.BigEndian.PutUint16(payload[off:], uint16(len(s.data)))
		binary.BigEndian.PutUint16(payload[off+2:], uint16(s.line)&0x7fff)
		o := uint16(s.offset) & 0x7fff
		if i < len(segs)-1 {
			o |= 0x8000 // continuation
		}
		binary.BigEndian.PutUint16(payload[off+4:], o)
		off += lineHeaderLen
	}
	for _, s := range segs {
		off += copy(payload[off:], s.data)
	}
	return &rtp.Packet{
		Header: rtp.Header{
			Version:        2,
			Marker:         marker,
			PayloadType:    p.PayloadType,
			SequenceNumber: seq,
			Timestamp:      ts,
			SSRC:           p.SSRC,
		},
		Payload: payload,
	}
}

// Depacketize writes the line segments of packets into frame and reports
// whether the last packet carried the marker bit.
func Depacketize(frame *yuv.Seq, packets []*rtp.Packet) (complete bool, err error) {
	const op = "depacketize"
	if err := checkFrame(op, frame); err != nil {
		return false, err
	}
	pl := frame.Planes()[0]
	lineBytes := 2 * frame.Width
	for _, pkt := range packets {
		if err := depacketizeOne(frame, pl, lineBytes, pkt.Payload); err != nil {
			return false, fmt.Errorf("packet %d: %w", pkt.SequenceNumber, err)
		}
		complete = pkt.Marker
	}
	return complete, nil
}

func depacketizeOne(frame *yuv.Seq, pl yuv.Plane, lineBytes int, payload []byte) error {
	const op = "depacketize"
	if len(payload) < extSeqLen+lineHeaderLen {
		return yuv.NewError(yuv.KindShapeMismatch, op, "short payload")
	}
	type hdr struct{ length, line, offset int }
	var hdrs []hdr
	off := extSeqLen
	for {
		if off+lineHeaderLen > len(payload) {
			return yuv.NewError(yuv.KindShapeMismatch, op, "truncated line header")
		}
		l := binary.BigEndian.Uint16(payload[off:])
		ln := binary.BigEndian.Uint16(payload[off+2:]) & 0x7fff
		o := binary.BigEndian.Uint16(payload[off+4:])
		hdrs = append(hdrs, hdr{length: int(l), line: int(ln), offset: int(o & 0x7fff)})
		off += lineHeaderLen
		if o&0x8000 == 0 {
			break
		}
	}
	for _, h := range hdrs {
		start := 2 * h.offset
		if h.line >= frame.Height || start+h.length > lineBytes {
			return yuv.NewError(yuv.KindInvalidGeometry, op,
				fmt.Sprintf("segment line %d offset %d length %d outside %dx%d", h.line, h.offset, h.length, frame.Width, frame.Height))
		}
		if off+h.length > len(payload) {
			return yuv.NewError(yuv.KindShapeMismatch, op, "truncated segment data")
		}
		copy(frame.Buf[pl.Offset+h.line*pl.Stride+start:], payload[off:off+h.length])
		off += h.length
	}
	return nil
}
