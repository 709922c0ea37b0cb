package app

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"scheduling-service/internal/apperrors"
	"scheduling-service/internal/events"
	"scheduling-service/internal/logger"
)

type Options struct {
	Hosts    HostStore
	Rules    RuleStore
	Bookings BookingStore
	Calendar CalendarSyncer
	Events   events.Publisher
	Log      *logger.Logger

	Location    *time.Location
	Now         func() time.Time
	SyncTimeout time.Duration
	EventPrefix string
}

type App struct {
	hosts    HostStore
	rules    RuleStore
	bookings BookingStore
	calendar CalendarSyncer
	events   events.Publisher
	log      *logger.Logger
	validate *validator.Validate

	loc         *time.Location
	now         func() time.Time
	syncTimeout time.Duration
	eventPrefix string
}

func New(opts Options) *App {
	a := &App{
		hosts:       opts.Hosts,
		rules:       opts.Rules,
		bookings:    opts.Bookings,
		calendar:    opts.Calendar,
		events:      opts.Events,
		log:         opts.Log,
		loc:         opts.Location,
		now:         opts.Now,
		syncTimeout: opts.SyncTimeout,
		eventPrefix: opts.EventPrefix,
		validate:    newValidator(),
	}
	if a.calendar == nil {
		a.calendar = NoopCalendar{}
	}
	if a.events == nil {
		a.events = events.NopPublisher{}
	}
	if a.log == nil {
		a.log = logger.Discard()
	}
	if a.loc == nil {
		a.loc = time.UTC
	}
	if a.now == nil {
		a.now = time.Now
	}
	if a.syncTimeout <= 0 {
		a.syncTimeout = 10 * time.Second
	}
	if a.eventPrefix == "" {
		a.eventPrefix = "Call"
	}
	return a
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	// Registration only fails for an empty tag or a nil func.
	_ = v.RegisterValidation("whole_hour", func(fl validator.FieldLevel) bool {
		return fl.Field().Int()%60 == 0
	})
	return v
}

func (a *App) host(ctx context.Context, username string) (Host, error) {
	h, err := a.hosts.HostByUsername(ctx, username)
	if errors.Is(err, ErrHostNotFound) {
		return Host{}, apperrors.NotFound("User")
	}
	if err != nil {
		return Host{}, apperrors.Internal("Failed to load user", err)
	}
	return h, nil
}
