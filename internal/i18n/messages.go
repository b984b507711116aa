// Package i18n renders user-facing notification text in the user's locale.
package i18n

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Message keys.
const (
	ReservationRequestedTitle = "reservation.requested.title"
	ReservationRequestedBody  = "reservation.requested.body"
	ReservationCreatedTitle   = "reservation.created.title"
	ReservationCreatedBody    = "reservation.created.body"
	ReservationApprovedTitle  = "reservation.approved.title"
	ReservationApprovedBody   = "reservation.approved.body"
	ReservationRejectedTitle  = "reservation.rejected.title"
	ReservationRejectedBody   = "reservation.rejected.body"
	ReservationCancelledTitle = "reservation.cancelled.title"
	ReservationCancelledBody  = "reservation.cancelled.body"
)

var supported = []language.Tag{language.English, language.Spanish}

var entries = map[language.Tag]map[string]string{
	language.English: {
		ReservationRequestedTitle: "New reservation request",
		ReservationRequestedBody:  "%s requested %s on %s",
		ReservationCreatedTitle:   "Reservation confirmed",
		ReservationCreatedBody:    "%s is booked for you on %s",
		ReservationApprovedTitle:  "Reservation approved",
		ReservationApprovedBody:   "Your reservation of %s on %s was approved",
		ReservationRejectedTitle:  "Reservation rejected",
		ReservationRejectedBody:   "Your reservation of %s on %s was rejected",
		ReservationCancelledTitle: "Reservation cancelled",
		ReservationCancelledBody:  "The reservation of %s on %s was cancelled",
	},
	language.Spanish: {
		ReservationRequestedTitle: "Nueva solicitud de reserva",
		ReservationRequestedBody:  "%s solicitó %s el %s",
		ReservationCreatedTitle:   "Reserva confirmada",
		ReservationCreatedBody:    "%s está reservada para ti el %s",
		ReservationApprovedTitle:  "Reserva aprobada",
		ReservationApprovedBody:   "Tu reserva de %s el %s fue aprobada",
		ReservationRejectedTitle:  "Reserva rechazada",
		ReservationRejectedBody:   "Tu reserva de %s el %s fue rechazada",
		ReservationCancelledTitle: "Reserva cancelada",
		ReservationCancelledBody:  "La reserva de %s el %s fue cancelada",
	},
}

// Translator renders catalog messages for a locale string.
type Translator struct {
	cat     catalog.Catalog
	matcher language.Matcher
}

// New builds a translator over the built-in catalog.
func New() *Translator {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for tag, msgs := range entries {
		for key, msg := range msgs {
			// Keys and messages are static; SetString only fails on a bad tag.
			_ = b.SetString(tag, key, msg)
		}
	}
	return &Translator{cat: b, matcher: language.NewMatcher(supported)}
}

// Match picks the best supported tag for locale, such as "es-MX" or an
// Accept-Language header value. Unknown or empty locales map to English.
func (t *Translator) Match(locale string) language.Tag {
	if locale == "" {
		return language.English
	}
	tags, _, err := language.ParseAcceptLanguage(locale)
	if err != nil || len(tags) == 0 {
		return language.English
	}
	_, idx, conf := t.matcher.Match(tags...)
	if conf == language.No {
		return language.English
	}
	return supported[idx]
}

// Sprintf renders key for locale with args.
func (t *Translator) Sprintf(locale, key string, args ...any) string {
	p := message.NewPrinter(t.Match(locale), message.Catalog(t.cat))
	return p.Sprintf(key, args...)
}
