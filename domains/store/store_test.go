package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGroupMetadata_CloneSharesNoParticipants(t *testing.T) {
	g := GroupMetadata{ID: "1203@g.us", Participants: []Participant{{ID: "62811@s.whatsapp.net", Admin: "admin"}}}

	cp := g.Clone()
	cp.Participants[0].Admin = ""
	cp.Participants = append(cp.Participants, Participant{ID: "62822@s.whatsapp.net"})

	assert.Equal(t, []string{"62811@s.whatsapp.net"}, g.Admins())
	assert.Len(t, g.Participants, 1)
}
