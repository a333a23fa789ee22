package backend

import (
	"go.opentelemetry.io/contrib/bridges/otelslog"
)

const scopeName = "github.com/koscakluka/ema-desk/core/backend"

var logger = otelslog.NewLogger(scopeName)
