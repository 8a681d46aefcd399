// Package mail defines the contracts for sending email messages.
//
// Use cases depend on the Mail interface and the provider-agnostic Message
// payload. SMTP is the bundled implementation: gomail composes the MIME body
// and delivery runs over a connection bound to the caller's context, so a
// cancelled or timed-out send never hangs.
package mail
