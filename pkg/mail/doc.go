// Package mail delivers the autopublishing audit report.
//
// A Sender takes a Message and delivers it. NewSender returns an SMTPSender
// when a mail host is configured and a NoopSender otherwise. Tests use
// RecordingSender to inspect what would have been sent.
package mail
