package core

// Logger is any service that can log application events.
// expected args: error | map[string]interface{} (extra data) | Actor
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}

// Actor is who triggered a logged action, eg. the operator running an admin command.
type Actor struct {
	ID   string
	Name string
}
