package domain

// Notification result codes reported by the gateway.
const (
	NotifyCodePaid = "1"
)

// PaymentNotification is the validated form of a gateway callback.
// All fields are required; the handler rejects the request before the
// engine sees it if any is missing.
type PaymentNotification struct {
	OrderNo    string
	OutTradeNo string
	PayNo      string
	Money      string
	MchID      string
	Code       string
	Sign       string
}

// SignedFields returns the fields covered by the notification
// signature, keyed the way the gateway names them on the wire.
func (n PaymentNotification) SignedFields() map[string]string {
	return map[string]string{
		"orderNo":    n.OrderNo,
		"outTradeNo": n.OutTradeNo,
		"payNo":      n.PayNo,
		"money":      n.Money,
		"mchId":      n.MchID,
		"code":       n.Code,
	}
}
