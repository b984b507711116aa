package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/text/language"
)

func TestTranslator_Match(t *testing.T) {
	tr := New()

	assert.Equal(t, language.English, tr.Match(""))
	assert.Equal(t, language.English, tr.Match("en-US"))
	assert.Equal(t, language.Spanish, tr.Match("es"))
	assert.Equal(t, language.Spanish, tr.Match("es-MX,es;q=0.9,en;q=0.5"))
	assert.Equal(t, language.English, tr.Match("ja"))
	assert.Equal(t, language.English, tr.Match("%%%"))
}

func TestTranslator_Sprintf(t *testing.T) {
	tr := New()

	assert.Equal(t, "Reservation approved", tr.Sprintf("en", ReservationApprovedTitle))
	assert.Equal(t, "Reserva aprobada", tr.Sprintf("es-ES", ReservationApprovedTitle))
	assert.Equal(t,
		"Your reservation of Lab 1 on 2025-09-18 09:00 UTC was rejected",
		tr.Sprintf("en", ReservationRejectedBody, "Lab 1", "2025-09-18 09:00 UTC"))
	assert.Equal(t,
		"Tu reserva de Lab 1 el 2025-09-18 09:00 UTC fue rechazada",
		tr.Sprintf("es", ReservationRejectedBody, "Lab 1", "2025-09-18 09:00 UTC"))
}
