package interfaces

import (
	"time"

	domaintypes "nostrdm/internal/domain/types"
)

// Console renders the interactive session.
type Console interface {
	Banner(peer string)
	Prompt()
	Sent(at time.Time, text string)
	Received(msg domaintypes.UnwrappedMessage)
	NoWriteRelay()
	SendFailed(err error)
	Farewell()
}
