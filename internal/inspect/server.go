// Package inspect serves an HTTP front end to the codec for debugging
// captured client/core traffic.
package inspect

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/danmuck/quasselwire/internal/config"
	"github.com/danmuck/quasselwire/internal/observability"
	"github.com/danmuck/quasselwire/internal/protocol"
	"github.com/danmuck/quasselwire/internal/protocol/frame"
	"github.com/danmuck/quasselwire/internal/protocol/variant"
	"github.com/danmuck/quasselwire/internal/render"
)

type Server struct {
	Name     string
	Addr     string
	Appeared time.Time

	proto  *protocol.Protocol
	limits frame.Limits
	logger zerolog.Logger
	router *gin.Engine
}

// Appear builds the server and registers its routes.
func Appear(cfg config.Config, proto *protocol.Protocol, logger zerolog.Logger) *Server {
	observability.RegisterMetrics()
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.RequestID())
	r.Use(observability.RequestLogger(logger))
	r.Use(observability.RequestMetricsMiddleware(cfg.Server.Name))
	r.Use(cors.New(cors.Config{
		AllowOrigins:  normalizeOrigins(cfg.Server.CorsOrigins),
		AllowMethods:  []string{"GET", "POST"},
		AllowHeaders:  []string{"Origin", "Content-Type", observability.RequestIDHeader},
		ExposeHeaders: []string{observability.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}))
	_ = r.SetTrustedProxies([]string{"127.0.0.1", "::1"})

	s := &Server{
		Name:     cfg.Server.Name,
		Addr:     cfg.Server.Addr,
		Appeared: time.Now(),
		proto:    proto,
		limits:   cfg.Codec.FrameLimits(),
		logger:   logger,
		router:   r,
	}
	s.RegisterRoutes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) RegisterRoutes() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"uptime":  time.Since(s.Appeared).String(),
			"service": s.Name,
		})
	})

	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := s.router.Group("/v1")
	v1.GET("/types", s.handleTypes)
	v1.POST("/decode", s.handleDecode)
	v1.POST("/encode/map", s.handleEncode(variant.TypeVariantMap))
	v1.POST("/encode/list", s.handleEncode(variant.TypeVariantList))
}

// Serve runs until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.Addr).Str("service", s.Name).Msg("inspect server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("inspect shutdown: %w", err)
		}
		return nil
	}
}

type typeInfo struct {
	ID   uint32 `json:"id"`
	Name string `json:"name"`
}

func (s *Server) handleTypes(c *gin.Context) {
	types := make([]typeInfo, 0, len(variant.Types()))
	for _, t := range variant.Types() {
		types = append(types, typeInfo{ID: uint32(t), Name: t.String()})
	}
	c.JSON(http.StatusOK, gin.H{
		"types":      types,
		"user_types": s.proto.UserTypes(),
		"constants": gin.H{
			"magic":               protocol.Magic,
			"type_list_end":       protocol.TypeListEnd,
			"protocol_datastream": uint8(protocol.ProtocolDatastream),
			"feature_encryption":  uint8(protocol.FeatureEncryption),
			"feature_compression": uint8(protocol.FeatureCompression),
		},
	})
}

func (s *Server) handleDecode(c *gin.Context) {
	format, err := render.ParseFormat(c.DefaultQuery("format", "json"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	body, err := s.readBody(c)
	if err != nil {
		s.codecError(c, "decode", err)
		return
	}
	payload := body
	if queryBool(c, "framed", false) {
		var rest []byte
		payload, rest, err = s.proto.ReadPacket(body)
		if err == nil && len(rest) > 0 {
			err = fmt.Errorf("%w: %d bytes after the first frame", protocol.ErrTrailingBytes, len(rest))
		}
		if err != nil {
			s.codecError(c, "decode", err)
			return
		}
	}
	v, err := s.proto.ReadVariant(payload)
	if err != nil {
		s.codecError(c, "decode", err)
		return
	}
	observability.RecordCodec("decode", len(payload), nil)

	out, err := render.Marshal(format, v)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, format.ContentType(), out)
}

func (s *Server) handleEncode(kind variant.Type) gin.HandlerFunc {
	op := "encode_list"
	if kind == variant.TypeVariantMap {
		op = "encode_map"
	}
	return func(c *gin.Context) {
		var raw any
		dec := json.NewDecoder(http.MaxBytesReader(c.Writer, c.Request.Body, int64(s.limits.MaxPayloadBytes)))
		dec.UseNumber()
		if err := dec.Decode(&raw); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid json body: %v", err)})
			return
		}
		v, err := variant.From(raw)
		if err == nil && v.Type != kind {
			err = fmt.Errorf("%w: expected %s body, got %s", protocol.ErrUnsupportedVariantKind, kind, v.Type)
		}
		if err != nil {
			s.codecError(c, op, err)
			return
		}

		var out []byte
		if kind == variant.TypeVariantMap {
			out, err = s.proto.WriteVariantMap(v.Map)
		} else {
			out, err = s.proto.WriteVariantList(v.List)
		}
		if err != nil {
			s.codecError(c, op, err)
			return
		}
		if queryBool(c, "framed", true) {
			if out, err = s.proto.WritePacket(out); err != nil {
				s.codecError(c, op, err)
				return
			}
		}
		observability.RecordCodec(op, len(out), nil)
		c.Data(http.StatusOK, "application/octet-stream", out)
	}
}

func (s *Server) readBody(c *gin.Context) ([]byte, error) {
	limit := int64(s.limits.MaxPayloadBytes) + frame.HeaderLen
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(body)) > limit {
		return nil, protocol.ErrPayloadTooLarge
	}
	return body, nil
}

func (s *Server) codecError(c *gin.Context, op string, err error) {
	observability.RecordCodec(op, 0, err)
	result := observability.CodecResult(err)
	status := http.StatusBadRequest
	if errors.Is(err, protocol.ErrPayloadTooLarge) {
		status = http.StatusRequestEntityTooLarge
	}
	s.logger.Debug().Str("op", op).Str("result", result).Err(err).Msg("inspect codec failure")
	c.JSON(status, gin.H{"error": err.Error(), "result": result})
}

func queryBool(c *gin.Context, key string, def bool) bool {
	raw, ok := c.GetQuery(key)
	if !ok {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return v
}

func normalizeOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"http://localhost:3000"}
	}
	return origins
}
