package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/finbridge/tradedocs/internal/core/domain"
)

type publishedEvent struct {
	subject string
	event   domain.FileEvent
}

type queueFake struct {
	published []publishedEvent
	err       error
}

func (f *queueFake) PublishFileEvent(_ context.Context, subject string, event domain.FileEvent) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, publishedEvent{subject: subject, event: event})
	return nil
}

func (f *queueFake) SubscribeFileEvents(context.Context, string, func(context.Context, domain.FileEvent) error) error {
	return nil
}

func routeUC(queue *queueFake) *RouteFileUseCase {
	return NewRouteFileUseCase(queue, RoutingConfig{
		VisionSubject:       "documents.vision",
		DocReaderSubject:    "documents.docreader",
		PDFConverterSubject: "documents.pdfconvert",
	}, testLogger())
}

func TestRouteByExtension(t *testing.T) {
	cases := []struct {
		ext     string
		route   domain.Route
		subject string
	}{
		{"png", domain.RouteVision, "documents.vision"},
		{"jpg", domain.RouteVision, "documents.vision"},
		{"jpeg", domain.RouteVision, "documents.vision"},
		{"tiff", domain.RouteVision, "documents.vision"},
		{"pdf", domain.RoutePDFConverter, "documents.pdfconvert"},
		{"txt", domain.RouteDocReader, "documents.docreader"},
		{"docx", domain.RouteDocReader, "documents.docreader"},
		{"rtf", domain.RouteDocReader, "documents.docreader"},
	}

	for _, tc := range cases {
		queue := &queueFake{}
		uc := routeUC(queue)

		route, err := uc.Route(context.Background(), domain.FileEvent{
			Bucket: "trade-docs", Key: "incoming/file", FileExtension: tc.ext,
		})
		if err != nil {
			t.Fatalf("%s: route: %v", tc.ext, err)
		}
		if route != tc.route {
			t.Errorf("%s: route = %s, want %s", tc.ext, route, tc.route)
		}
		if len(queue.published) != 1 {
			t.Fatalf("%s: published = %d events", tc.ext, len(queue.published))
		}
		if queue.published[0].subject != tc.subject {
			t.Errorf("%s: subject = %s, want %s", tc.ext, queue.published[0].subject, tc.subject)
		}
		if queue.published[0].event.Route != tc.route {
			t.Errorf("%s: published event carries route %s", tc.ext, queue.published[0].event.Route)
		}
	}
}

func TestRouteNormalizesExtension(t *testing.T) {
	queue := &queueFake{}
	uc := routeUC(queue)

	route, err := uc.Route(context.Background(), domain.FileEvent{
		Bucket: "trade-docs", Key: "incoming/scan", FileExtension: ".PNG",
	})
	if err != nil {
		t.Fatalf("route: %v", err)
	}
	if route != domain.RouteVision {
		t.Errorf("route = %s", route)
	}
	if queue.published[0].event.FileExtension != "png" {
		t.Errorf("published extension = %q, want normalized png", queue.published[0].event.FileExtension)
	}
}

func TestRouteFallsBackToKeyExtension(t *testing.T) {
	queue := &queueFake{}
	uc := routeUC(queue)

	route, err := uc.Route(context.Background(), domain.FileEvent{
		Bucket: "trade-docs", Key: "incoming/lc-001.PDF",
	})
	if err != nil {
		t.Fatalf("route: %v", err)
	}
	if route != domain.RoutePDFConverter {
		t.Errorf("route = %s, want pdf_converter", route)
	}
}

func TestRouteUnsupportedExtension(t *testing.T) {
	queue := &queueFake{}
	uc := routeUC(queue)

	for _, key := range []string{"incoming/archive.zip", "incoming/noextension", "incoming/trailingdot."} {
		route, err := uc.Route(context.Background(), domain.FileEvent{Bucket: "trade-docs", Key: key})
		if err == nil {
			t.Errorf("%s: want error", key)
		}
		if route != domain.RouteUnsupported {
			t.Errorf("%s: route = %s", key, route)
		}
		if !domain.IsKind(err, domain.ErrInvalidInput) {
			t.Errorf("%s: error kind = %v, want invalid input", key, err)
		}
	}
	if len(queue.published) != 0 {
		t.Errorf("published = %d events, want none", len(queue.published))
	}
}

func TestRoutePublishError(t *testing.T) {
	queue := &queueFake{err: errors.New("nats unavailable")}
	uc := routeUC(queue)

	_, err := uc.Route(context.Background(), domain.FileEvent{
		Bucket: "trade-docs", Key: "incoming/lc-001.png", FileExtension: "png",
	})
	if err == nil {
		t.Fatal("want publish error surfaced")
	}
}
