package mail

import "fmt"

// WelcomeMessage builds the post-signup notification.
func WelcomeMessage(email, username string) Message {
	return Message{
		To:      email,
		Subject: "Welcome to PXSM!",
		HTML: fmt.Sprintf(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
<h2>Welcome to PXSM, %s!</h2>
<p>Your account has been created and is ready to use.</p>
</div>`, username),
	}
}

// LoginNotification builds the new-login notification.
func LoginNotification(email, username, loginAt, remoteAddr string) Message {
	return Message{
		To:      email,
		Subject: "New Login Detected - PXSM",
		HTML: fmt.Sprintf(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
<h2>Hello %s,</h2>
<p>A new login to your account was detected at %s from %s.</p>
<p>If this was not you, please reset your password immediately.</p>
</div>`, username, loginAt, remoteAddr),
	}
}

// OrderPlaced builds the order confirmation notification.
func OrderPlaced(email, username, orderID, serviceName, amount string) Message {
	return Message{
		To:      email,
		Subject: "Order Received - PXSM",
		HTML: fmt.Sprintf(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
<h2>Thank you, %s!</h2>
<p>Your order %s for %s has been received. Amount charged: %s.</p>
</div>`, username, orderID, serviceName, amount),
	}
}

// WithdrawalRequested builds the withdrawal acknowledgement notification.
func WithdrawalRequested(email, reference, amount string) Message {
	return Message{
		To:      email,
		Subject: "Withdrawal Request Received - PXSM",
		HTML: fmt.Sprintf(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
<h2>Withdrawal request %s</h2>
<p>Your withdrawal request for %s is being processed. You will be notified once it is approved.</p>
</div>`, reference, amount),
	}
}

// WithdrawalStatusUpdated builds the withdrawal transition notification.
func WithdrawalStatusUpdated(email, reference, status string) Message {
	return Message{
		To:      email,
		Subject: "Withdrawal Status Update - PXSM",
		HTML: fmt.Sprintf(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
<h2>Withdrawal %s</h2>
<p>Your withdrawal request is now %s.</p>
</div>`, reference, status),
	}
}

// SubscriptionActivated builds the subscription confirmation notification.
func SubscriptionActivated(email, subscriptionType, endDate string) Message {
	return Message{
		To:      email,
		Subject: "Subscription Activated - PXSM",
		HTML: fmt.Sprintf(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
<h2>Your %s subscription is active</h2>
<p>Your agent subscription is valid until %s.</p>
</div>`, subscriptionType, endDate),
	}
}
