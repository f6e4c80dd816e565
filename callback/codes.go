package callback

import "fmt"

// resultCodeMessages maps gateway result codes to human-readable failure
// messages. Code 0 is success and never reaches this table.
var resultCodeMessages = map[int]string{
	1:    "The balance is insufficient for the transaction",
	17:   "User cancelled the transaction",
	26:   "System busy, the request was not accepted",
	1001: "Unable to lock subscriber, a transaction is already in process",
	1019: "Transaction has expired",
	1025: "An error occurred while sending a push request",
	1032: "The request was cancelled by the user",
	1037: "Timeout waiting for the user to respond",
	2001: "The initiator information is invalid",
	9999: "An error occurred while processing the request",
}

// MessageForCode returns the failure message for a gateway result code.
// Unknown codes map to a generic message carrying the code.
func MessageForCode(code int) string {
	if msg, ok := resultCodeMessages[code]; ok {
		return msg
	}
	return fmt.Sprintf("Transaction failed with code: %d", code)
}
