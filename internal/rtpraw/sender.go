package rtpraw

import (
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net"
	"time"

	"yuvtool/internal/logs"
	"yuvtool/internal/yuv"
)

// PayloadType is the dynamic payload type used for raw video.
const PayloadType = 96

// Sender packetizes frames and sends them to every destination.
type Sender struct {
	p     *Packetizer
	b     *Broadcaster
	conns []io.Closer
	// pace spreads the packets of a frame over this duration; zero sends
	// them back to back.
	pace time.Duration
}

// NewSender sends through b, which the Sender then owns.
func NewSender(p *Packetizer, b *Broadcaster) *Sender {
	return &Sender{p: p, b: b}
}

// Dial opens one UDP socket per address and returns a sender writing to
// all of them.
func Dial(addrs []string, mtu int) (*Sender, error) {
	if len(addrs) == 0 {
		return nil, errors.New("rtpraw: no destination")
	}
	s := NewSender(NewPacketizer(mtu, PayloadType, rand.Uint32()), NewBroadcaster())
	for _, a := range addrs {
		conn, err := net.Dial("udp", a)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("rtpraw: dial %s: %w", a, err)
		}
		s.conns = append(s.conns, conn)
		s.b.Add(conn)
		logs.Logger().Info("rtp destination added", "addr", a, "ssrc", s.p.SSRC)
	}
	return s, nil
}

// SetPace spreads each frame's packets over d.
func (s *Sender) SetPace(d time.Duration) { s.pace = d }

// SendFrame packetizes frame and queues its packets. It returns the number
// of packets produced.
func (s *Sender) SendFrame(frame *yuv.Seq, timestamp uint32) (int, error) {
	pkts, err := s.p.Packetize(frame, timestamp)
	if err != nil {
		return 0, err
	}
	var gap time.Duration
	if s.pace > 0 && len(pkts) > 1 {
		gap = s.pace / time.Duration(len(pkts))
	}
	for _, pkt := range pkts {
		raw, err := pkt.Marshal()
		if err != nil {
			return 0, fmt.Errorf("rtpraw: marshal: %w", err)
		}
		s.b.WritePacket(raw)
		if gap > 0 {
			time.Sleep(gap)
		}
	}
	return len(pkts), nil
}

// Counters reports the broadcaster counters.
func (s *Sender) Counters() map[string]uint64 { return s.b.Counters() }

// Close stops the workers and closes the sockets.
func (s *Sender) Close() error {
	s.b.Close()
	var errs []error
	for _, c := range s.conns {
		errs = append(errs, c.Close())
	}
	s.conns = nil
	return errors.Join(errs...)
}
