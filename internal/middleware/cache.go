package middleware

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/iliyamo/tour-seat-planner/internal/config"
)

// captureWriter forwards the response while keeping a bounded copy.
type captureWriter struct {
	http.ResponseWriter
	status    int
	buf       bytes.Buffer
	limit     int
	truncated bool
}

func (cw *captureWriter) WriteHeader(code int) {
	cw.status = code
	cw.ResponseWriter.WriteHeader(code)
}

func (cw *captureWriter) Write(b []byte) (int, error) {
	if !cw.truncated {
		if cw.limit > 0 && cw.buf.Len()+len(b) > cw.limit {
			cw.truncated = true
			cw.buf.Reset()
		} else {
			cw.buf.Write(b)
		}
	}
	return cw.ResponseWriter.Write(b)
}

// SeatMapCache caches successful seat map responses in Redis, keyed by
// request path and query.  Entries of one path can be dropped with
// Invalidate when its layout changes.
type SeatMapCache struct {
	cfg config.CacheConfig
	rdb *redis.Client
	log *zap.Logger
}

// NewSeatMapCache returns a cache; a nil client or disabled config makes
// every method a no-op.
func NewSeatMapCache(cfg config.CacheConfig, rdb *redis.Client, logger *zap.Logger) *SeatMapCache {
	if cfg.TTL <= 0 {
		cfg.TTL = time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SeatMapCache{cfg: cfg, rdb: rdb, log: logger.Named("seatmap_cache")}
}

func (s *SeatMapCache) enabled() bool { return s.cfg.Enabled && s.rdb != nil }

func hashOf(v string) string {
	sum := sha1.Sum([]byte(v))
	return hex.EncodeToString(sum[:8])
}

// pathPrefix is shared by every cached variant of path.
func (s *SeatMapCache) pathPrefix(path string) string {
	return s.cfg.Prefix + ":" + hashOf(path) + ":"
}

func (s *SeatMapCache) key(r *http.Request) string {
	return s.pathPrefix(r.URL.Path) + hashOf(r.URL.RawQuery)
}

// Middleware serves hits and stores 200 responses on a miss.
func (s *SeatMapCache) Middleware() echo.MiddlewareFunc {
	if !s.enabled() {
		return passThrough
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if !s.cfg.Methods[req.Method] {
				return next(c)
			}
			key := s.key(req)

			if bs, err := s.rdb.Get(req.Context(), key).Bytes(); err == nil {
				if status, hdr, body, ok := decodePayload(bs); ok {
					for k, vals := range hdr {
						if strings.EqualFold(k, echo.HeaderContentLength) {
							continue
						}
						for _, v := range vals {
							c.Response().Header().Add(k, v)
						}
					}
					c.Response().Header().Set("X-Cache", "HIT")
					c.Response().WriteHeader(status)
					_, _ = c.Response().Write(body)
					return nil
				}
			}

			cw := &captureWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: s.cfg.MaxBodyBytes}
			c.Response().Writer = cw
			c.Response().Header().Set("X-Cache", "MISS")
			if err := next(c); err != nil {
				return err
			}
			if cw.status != http.StatusOK || cw.truncated {
				return nil
			}
			hdr := c.Response().Header().Clone()
			hdr.Del("X-Cache")
			payload, err := encodePayload(cw.status, hdr, cw.buf.Bytes())
			if err != nil {
				return nil
			}
			if err := s.rdb.Set(context.WithoutCancel(req.Context()), key, payload, s.cfg.TTL).Err(); err != nil {
				s.log.Warn("cache store failed", zap.Error(err))
			}
			return nil
		}
	}
}

// Invalidate drops every cached variant of path.
func (s *SeatMapCache) Invalidate(ctx context.Context, path string) error {
	if !s.enabled() {
		return nil
	}
	iter := s.rdb.Scan(ctx, 0, s.pathPrefix(path)+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return s.rdb.Del(ctx, keys...).Err()
}

// encodePayload packs [4 bytes status][4 bytes header length][header JSON][body].
func encodePayload(status int, header http.Header, body []byte) ([]byte, error) {
	hdrJSON, err := json.Marshal(header)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 8+len(hdrJSON)+len(body))
	binary.BigEndian.PutUint32(out[0:4], uint32(status))
	binary.BigEndian.PutUint32(out[4:8], uint32(len(hdrJSON)))
	copy(out[8:], hdrJSON)
	copy(out[8+len(hdrJSON):], body)
	return out, nil
}

func decodePayload(bs []byte) (status int, header http.Header, body []byte, ok bool) {
	if len(bs) < 8 {
		return 0, nil, nil, false
	}
	status = int(binary.BigEndian.Uint32(bs[0:4]))
	hlen := int(binary.BigEndian.Uint32(bs[4:8]))
	if hlen < 0 || 8+hlen > len(bs) {
		return 0, nil, nil, false
	}
	if err := json.Unmarshal(bs[8:8+hlen], &header); err != nil {
		return 0, nil, nil, false
	}
	return status, header, bs[8+hlen:], true
}
