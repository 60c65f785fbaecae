package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"yuvtool/internal/convert"
	"yuvtool/internal/logs"
	"yuvtool/internal/version"
	"yuvtool/internal/yuv"
)

// DefaultMaxFrameBytes holds a 16-bit 4:2:2 frame of 3840x2176.
const DefaultMaxFrameBytes = 64 << 20

type Config struct {
	Host string
	Port int
	// MaxFrameBytes caps every frame a /convert request needs: the body,
	// each intermediate and the result. 0 means DefaultMaxFrameBytes.
	MaxFrameBytes int64
}

// ConvertServer exposes the conversion engine over HTTP.
type ConvertServer struct {
	cfg      Config
	inflight atomic.Int64
	requests atomic.Uint64
	pool     sync.Pool
}

// job is the per-request working set; arenas are not safe for concurrent use.
type job struct {
	arena *convert.Arena
	src   yuv.Seq
}

func NewConvertServer(cfg Config) *ConvertServer {
	s := &ConvertServer{cfg: cfg}
	s.pool.New = func() any { return &job{arena: convert.NewArena(2)} }
	return s
}

func (s *ConvertServer) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/convert", s.handleConvert)
	mux.HandleFunc("/layout", s.handleLayout)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		allowCORS(w, r)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":   "ok",
			"version":  version.Info(),
			"inflight": s.inflight.Load(),
			"requests": s.requests.Load(),
			"convert":  convert.GetCounters(),
		})
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.WriteString(w, usage)
	})
}

// POST /convert?size=WxH&src=420p&srcbits=8&dst=420sp ... body is one frame.
func (s *ConvertServer) handleConvert(w http.ResponseWriter, r *http.Request) {
	allowCORS(w, r)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.requests.Add(1)
	s.inflight.Add(1)
	defer s.inflight.Add(-1)

	id := uuid.New().String()
	log := logs.Logger().With("request", id)
	w.Header().Set("X-Request-Id", id)

	q := r.URL.Query()
	srcL, err := parseLayout(q, "src", nil)
	if err != nil {
		writeError(w, err)
		return
	}
	dstL, err := parseLayout(q, "dst", &srcL)
	if err != nil {
		writeError(w, err)
		return
	}

	limit := s.frameLimit()
	if err := checkBudget(srcL, dstL, limit); err != nil {
		log.Warn("convert rejected", "err", err)
		writeError(w, err)
		return
	}

	j := s.pool.Get().(*job)
	defer s.pool.Put(j)
	if err := j.src.Resize(srcL); err != nil {
		writeError(w, err)
		return
	}

	body := http.MaxBytesReader(w, r.Body, limit)
	if _, err := io.ReadFull(body, j.src.Frame()); err != nil {
		var tooBig *http.MaxBytesError
		switch {
		case errors.As(err, &tooBig):
			http.Error(w, err.Error(), http.StatusRequestEntityTooLarge)
		case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
			http.Error(w, fmt.Sprintf("short frame: need %d bytes", j.src.IOSize), http.StatusBadRequest)
		default:
			http.Error(w, err.Error(), http.StatusBadRequest)
		}
		return
	}
	if n, _ := io.CopyN(io.Discard, body, 1); n != 0 {
		http.Error(w, fmt.Sprintf("body exceeds frame size %d", j.src.IOSize), http.StatusBadRequest)
		return
	}

	out, err := j.arena.Convert(dstL, &j.src)
	if err != nil {
		log.Warn("convert failed", "src", &j.src, "err", err)
		writeError(w, err)
		return
	}
	log.Info("converted", "src", j.src.Format.String(), "dst", out.Format.String(), "bytes", out.IOSize)

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Length", strconv.Itoa(out.IOSize))
	w.Header().Set("X-Yuv-Layout", out.String())
	_, _ = w.Write(out.Frame())
}

func (s *ConvertServer) frameLimit() int64 {
	if s.cfg.MaxFrameBytes > 0 {
		return s.cfg.MaxFrameBytes
	}
	return DefaultMaxFrameBytes
}

// checkBudget sizes the source and every planned stage without allocating
// and rejects the request when any frame would exceed limit.
func checkBudget(srcL, dstL yuv.Layout, limit int64) error {
	const op = "convert"
	src, err := yuv.ComputeLayout(srcL)
	if err != nil {
		return err
	}
	if int64(src.IOSize) > limit {
		return yuv.NewError(yuv.KindAllocation, op, fmt.Sprintf("source frame of %d bytes exceeds limit %d", src.IOSize, limit))
	}
	steps, err := convert.Plan(dstL, &src)
	if err != nil {
		return err
	}
	for _, st := range steps {
		out, err := yuv.ComputeLayout(st.Out)
		if err != nil {
			return err
		}
		if int64(out.IOSize) > limit {
			return yuv.NewError(yuv.KindAllocation, op, fmt.Sprintf("%s frame of %d bytes exceeds limit %d", st.Stage, out.IOSize, limit))
		}
	}
	return nil
}

// GET /layout?size=WxH&fmt=420p&bits=8 -> descriptor JSON
func (s *ConvertServer) handleLayout(w http.ResponseWriter, r *http.Request) {
	allowCORS(w, r)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	l, err := parseLayout(r.URL.Query(), "", nil)
	if err != nil {
		writeError(w, err)
		return
	}
	seq, err := yuv.ComputeLayout(l)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(seq.Info())
}

// parseLayout reads prefix-qualified layout parameters. With base set,
// missing values fall back to base's format and bit depth.
func parseLayout(q url.Values, prefix string, base *yuv.Layout) (yuv.Layout, error) {
	var l yuv.Layout
	if base != nil {
		l.Format, l.BitDepth = base.Format, base.BitDepth
	} else {
		size := q.Get("size")
		if size == "" {
			return l, yuv.NewError(yuv.KindInvalidGeometry, "query", "missing size")
		}
		w, h, err := yuv.ParseSize(size)
		if err != nil {
			return l, yuv.NewError(yuv.KindInvalidGeometry, "query", err.Error())
		}
		l.Width, l.Height = w, h
		l.Format, l.BitDepth = yuv.Format420P, 8
	}

	fmtKey := prefix
	if fmtKey == "" {
		fmtKey = "fmt"
	}
	if v := q.Get(fmtKey); v != "" {
		f, err := yuv.ParseFormat(v)
		if err != nil {
			return l, err
		}
		l.Format = f
	}
	ints := []struct {
		key string
		dst *int
	}{
		{prefix + "bits", &l.BitDepth},
		{prefix + "nlsb", &l.ActiveBits},
		{prefix + "stride", &l.Stride},
		{prefix + "iosize", &l.IOSize},
	}
	for _, it := range ints {
		v := q.Get(it.key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return l, yuv.NewError(yuv.KindInvalidGeometry, "query", fmt.Sprintf("%s=%q: %v", it.key, v, err))
		}
		*it.dst = n
	}
	if v := q.Get(prefix + "tile"); v != "" {
		t, err := strconv.ParseBool(v)
		if err != nil {
			return l, yuv.NewError(yuv.KindInvalidGeometry, "query", fmt.Sprintf("%stile=%q: %v", prefix, v, err))
		}
		l.Tiled = t
	}
	return l, nil
}

func statusFor(err error) int {
	switch yuv.KindOf(err) {
	case yuv.KindUnsupportedFormat:
		return http.StatusUnprocessableEntity
	case yuv.KindAllocation:
		return http.StatusRequestEntityTooLarge
	case yuv.KindShapeMismatch, yuv.KindInvalidGeometry:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	http.Error(w, err.Error(), statusFor(err))
}

func allowCORS(w http.ResponseWriter, r *http.Request) {
	origin := r.Header.Get("Origin")
	if origin == "" {
		origin = "*"
	}
	w.Header().Set("Access-Control-Allow-Origin", origin)
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	w.Header().Set("Access-Control-Expose-Headers", "X-Request-Id, X-Yuv-Layout")
}

const usage = `yuvtool conversion service

POST /convert?size=WxH&src=420p&srcbits=8&srctile=0&dst=420sp&dstbits=8
     body: one raw frame, response: the converted frame
GET  /layout?size=WxH&fmt=420p&bits=8
GET  /health
`
