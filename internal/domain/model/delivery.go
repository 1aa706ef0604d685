package model

// DeliveryResult reports one gateway call without surfacing an error to the
// handler flow. A failed call yields IsSuccess false and a nil message.
type DeliveryResult struct {
	IsSuccess bool
	ErrorCode int
	ErrorKind string
	Message   *Message
	Messages  []*Message
}

func DeliveryOK(msg *Message) *DeliveryResult {
	return &DeliveryResult{IsSuccess: true, Message: msg}
}
