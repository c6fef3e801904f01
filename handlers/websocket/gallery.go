package websocket

import (
	"regexp"

	"badge-studio/core"

	"github.com/sirupsen/logrus"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/engine.io/v2/utils"
	socketio "github.com/zishang520/socket.io/v2/socket"
)

const (
	// GalleryRoom is joined by every client on connection.
	GalleryRoom = "gallery"

	EventEntryAdded = "gallery-entry-added"
)

// SetupSocketIO builds the realtime server. allowedOrigins may hold "*" to accept any
// origin; local development origins are always accepted.
func SetupSocketIO(allowedOrigins []string) *socketio.Server {
	opts := socketio.DefaultServerOptions()
	opts.SetPath("/socket.io")
	opts.SetAllowEIO3(true)
	opts.SetCors(&types.Cors{
		Origin:      corsOrigins(allowedOrigins),
		Credentials: true,
	})
	srv := socketio.NewServer(nil, opts)

	//nolint:errcheck // Socket.IO event handlers do not return useful errors
	srv.On("connection", func(clients ...any) {
		socket, ok := clients[0].(*socketio.Socket)
		if !ok {
			return
		}
		socket.Join(socketio.Room(GalleryRoom))
		utils.Log().Printf("Socket %v has joined %v\n", socket.Id(), GalleryRoom)

		//nolint:errcheck // Socket.IO event handlers do not return useful errors
		socket.On("disconnect", func(...any) {
			utils.Log().Printf("Socket %v has left %v\n", socket.Id(), GalleryRoom)
		})
	})

	return srv
}

func corsOrigins(allowed []string) any {
	localhostOrigin := regexp.MustCompile(`^https?://(localhost|127\.0\.0\.1|\[::1\])(:\d+)?$`)
	origins := []any{localhostOrigin}
	for _, o := range allowed {
		if o == "*" {
			return true
		}
		origins = append(origins, o)
	}
	return origins
}

type emitFunc func(room socketio.Room, event string, args ...any) error

// GalleryNotifier pushes newly published badges to connected clients.
type GalleryNotifier struct {
	emit emitFunc
}

func NewGalleryNotifier(srv *socketio.Server) *GalleryNotifier {
	return &GalleryNotifier{emit: func(room socketio.Room, event string, args ...any) error {
		return srv.To(room).Emit(event, args...)
	}}
}

// BadgeCreated is best effort: failures are logged and dropped.
func (n *GalleryNotifier) BadgeCreated(entry core.WireEntry) {
	if err := n.emit(socketio.Room(GalleryRoom), EventEntryAdded, entry); err != nil {
		logrus.WithField("badge_id", entry.ID).WithError(err).Warn("Failed to notify gallery clients")
		return
	}
	logrus.WithField("badge_id", entry.ID).Debug("Notified gallery clients")
}
