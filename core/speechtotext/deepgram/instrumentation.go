package deepgram

import "go.opentelemetry.io/contrib/bridges/otelslog"

const scopeName = "github.com/koscakluka/ema-desk/core/speechtotext/deepgram"

var logger = otelslog.NewLogger(scopeName)
