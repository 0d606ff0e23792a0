//go:build darwin

package pointer

/*
#cgo LDFLAGS: -framework ApplicationServices -framework CoreGraphics
#include <ApplicationServices/ApplicationServices.h>

static int facenav_location(double *x, double *y) {
	CGEventRef ev = CGEventCreate(NULL);
	if (ev == NULL) {
		return -1;
	}
	CGPoint p = CGEventGetLocation(ev);
	CFRelease(ev);
	*x = p.x;
	*y = p.y;
	return 0;
}

static int facenav_post(int type, int button, double x, double y) {
	CGEventRef ev = CGEventCreateMouseEvent(NULL, (CGEventType)type, CGPointMake(x, y), (CGMouseButton)button);
	if (ev == NULL) {
		return -1;
	}
	CGEventPost(kCGHIDEventTap, ev);
	CFRelease(ev);
	return 0;
}

static void facenav_bounds(size_t *w, size_t *h) {
	CGDirectDisplayID id = CGMainDisplayID();
	*w = CGDisplayPixelsWide(id);
	*h = CGDisplayPixelsHigh(id);
}
*/
import "C"

import (
	"errors"

	"github.com/teslashibe/go-facenav/pkg/action"
)

var errEventCreate = errors.New("pointer: CoreGraphics refused to create event")

// Quartz posts pointer events through CoreGraphics. The process needs the
// macOS Accessibility permission for events to take effect.
type Quartz struct{}

func newQuartz() (Device, error) {
	q := &Quartz{}
	if w, h, _ := q.ScreenBounds(); w == 0 || h == 0 {
		return nil, ErrUnavailable
	}
	return q, nil
}

func (q *Quartz) Position() (int, int, error) {
	var x, y C.double
	if C.facenav_location(&x, &y) != 0 {
		return 0, 0, errEventCreate
	}
	return int(x), int(y), nil
}

func (q *Quartz) MoveTo(x, y int) error {
	return post(C.kCGEventMouseMoved, C.kCGMouseButtonLeft, x, y)
}

func (q *Quartz) Press(b action.Button, x, y int) error {
	if b == action.Right {
		return post(C.kCGEventRightMouseDown, C.kCGMouseButtonRight, x, y)
	}
	return post(C.kCGEventLeftMouseDown, C.kCGMouseButtonLeft, x, y)
}

func (q *Quartz) Release(b action.Button, x, y int) error {
	if b == action.Right {
		return post(C.kCGEventRightMouseUp, C.kCGMouseButtonRight, x, y)
	}
	return post(C.kCGEventLeftMouseUp, C.kCGMouseButtonLeft, x, y)
}

func (q *Quartz) ScreenBounds() (int, int, error) {
	var w, h C.size_t
	C.facenav_bounds(&w, &h)
	return int(w), int(h), nil
}

func (q *Quartz) Close() error {
	return nil
}

func post(eventType, button C.int, x, y int) error {
	if C.facenav_post(eventType, button, C.double(x), C.double(y)) != 0 {
		return errEventCreate
	}
	return nil
}
