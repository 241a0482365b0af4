package notification

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/polkiloo/storefront/internal/config"
)

// Module provides the dispatcher over every channel in the "notification_channels" group.
// Starting and stopping it is left to the application lifecycle.
var Module = fx.Provide(
	newDispatcher,
	fx.Annotate(NewLogRecorder, fx.As(new(Recorder))),
)

type dispatcherParams struct {
	fx.In

	Channels []Channel `group:"notification_channels"`
	Recorder Recorder
	Config   *config.Config
	Logger   *slog.Logger
}

func newDispatcher(p dispatcherParams) *Dispatcher {
	return NewDispatcher(p.Channels, p.Recorder, Options{
		Workers:   p.Config.NotifyWorkers,
		QueueSize: p.Config.NotifyQueueSize,
		Timeout:   p.Config.NotifyTimeout,
	}, p.Logger)
}
