package session

import (
	"context"
	"errors"
	"testing"

	"github.com/ashureev/docqa/internal/backend"
	"github.com/stretchr/testify/assert"
)

type fakeClearer struct {
	calls int
	err   error
}

func (f *fakeClearer) Clear(context.Context) error {
	f.calls++
	return f.err
}

func TestDeclinedResetSendsNothing(t *testing.T) {
	var r Reset
	c := &fakeClearer{}
	var asked string

	out := r.Run(context.Background(), ConfirmFunc(func(p string) bool {
		asked = p
		return false
	}), c)

	assert.Equal(t, Prompt, asked)
	assert.Equal(t, Outcome{Declined: true}, out)
	assert.Zero(t, c.calls)
	assert.False(t, r.Busy())
}

func TestConfirmedResetNavigates(t *testing.T) {
	var r Reset
	c := &fakeClearer{}

	out := r.Run(context.Background(), ConfirmFunc(func(string) bool { return true }), c)

	assert.Equal(t, Outcome{Navigate: true}, out)
	assert.Equal(t, 1, c.calls)
}

func TestFailedResetAlerts(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"transport", &backend.Error{Kind: backend.KindTransport, Op: "clear", Err: errors.New("refused")}},
		{"http", &backend.Error{Kind: backend.KindHTTP, Op: "clear", StatusCode: 500}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var r Reset
			out := r.Execute(context.Background(), &fakeClearer{err: tt.err})
			assert.Equal(t, Outcome{Alert: AlertText}, out)
			assert.False(t, r.Busy())
		})
	}
}

func TestSecondResetRefusedWhileBusy(t *testing.T) {
	var r Reset
	assert.True(t, r.Begin())

	c := &fakeClearer{}
	out := r.Execute(context.Background(), c)

	assert.True(t, out.Busy)
	assert.Zero(t, c.calls)
}
