package version

// Version is stamped at build time with
// -ldflags "-X github.com/gogotex/todo-service/internal/version.Version=v1.2.3".
var Version = "dev"

// Name is the service name reported by the health check.
const Name = "todo-service"
