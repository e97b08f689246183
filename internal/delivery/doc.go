// Package delivery packages a finished mashup and hands it to the requester.
//
// Package zips the MP3; Sender abstracts the outbound transport, with an SMTP
// implementation built on go-mail.
package delivery
