package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/finbridge/tradedocs/internal/core/domain"
	"github.com/finbridge/tradedocs/internal/core/ports"
)

// RoutingConfig maps routing decisions to queue subjects.
type RoutingConfig struct {
	VisionSubject       string
	DocReaderSubject    string
	PDFConverterSubject string
}

// RouteFileUseCase dispatches a landed file to the processor that can
// handle its format. Images go straight to vision; PDFs need
// rasterization first; text formats go to the doc reader.
type RouteFileUseCase struct {
	queue  ports.MessageQueue
	cfg    RoutingConfig
	logger *slog.Logger
}

func NewRouteFileUseCase(queue ports.MessageQueue, cfg RoutingConfig, logger *slog.Logger) *RouteFileUseCase {
	return &RouteFileUseCase{queue: queue, cfg: cfg, logger: logger}
}

func (uc *RouteFileUseCase) Route(ctx context.Context, event domain.FileEvent) (domain.Route, error) {
	ext := strings.ToLower(strings.TrimPrefix(event.FileExtension, "."))
	if ext == "" {
		ext = extensionOf(event.Key)
	}

	route := routeForExtension(ext)
	if route == domain.RouteUnsupported {
		return route, domain.WrapError(domain.ErrInvalidInput, "route file",
			fmt.Errorf("unsupported file extension %q for %s", ext, event.Key))
	}

	event.FileExtension = ext
	event.Route = route
	if err := uc.queue.PublishFileEvent(ctx, uc.subjectFor(route), event); err != nil {
		return route, fmt.Errorf("publish %s event: %w", route, err)
	}

	uc.logger.Info("file_routed", "bucket", event.Bucket, "key", event.Key, "route", route)
	return route, nil
}

func routeForExtension(ext string) domain.Route {
	switch ext {
	case "png", "jpg", "jpeg", "gif", "bmp", "tiff":
		return domain.RouteVision
	case "pdf":
		return domain.RoutePDFConverter
	case "txt", "doc", "docx", "rtf":
		return domain.RouteDocReader
	default:
		return domain.RouteUnsupported
	}
}

func (uc *RouteFileUseCase) subjectFor(route domain.Route) string {
	switch route {
	case domain.RouteVision:
		return uc.cfg.VisionSubject
	case domain.RoutePDFConverter:
		return uc.cfg.PDFConverterSubject
	default:
		return uc.cfg.DocReaderSubject
	}
}

func extensionOf(key string) string {
	idx := strings.LastIndex(key, ".")
	if idx < 0 || idx == len(key)-1 {
		return ""
	}
	return strings.ToLower(key[idx+1:])
}
