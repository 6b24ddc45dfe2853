package core

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSession_State(t *testing.T) {
	s := NewSession()
	assert.Equal(t, Unauthenticated, s.State())
	assert.Equal(t, Credentials{}, s.Credentials())

	s.SetTokens("tok1", "ref1")
	assert.Equal(t, Authenticated, s.State())
	assert.Equal(t, "authenticated", s.State().String())

	s.SetAccessToken("tok2")
	assert.Equal(t, Credentials{AccessToken: "tok2", RefreshToken: "ref1"}, s.Credentials())

	s.SetTokens("", "")
	assert.Equal(t, Unauthenticated, s.State())
	assert.Equal(t, "unauthenticated", s.State().String())
}

func TestSession_ConcurrentWrites(t *testing.T) {
	s := NewSession()
	s.SetTokens("a", "r")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			s.SetAccessToken("a2")
		}()
		go func() {
			defer wg.Done()
			_ = s.Credentials()
		}()
	}
	wg.Wait()

	assert.Equal(t, "a2", s.AccessToken())
	assert.Equal(t, "r", s.RefreshToken())
}

func TestErrors_Messages(t *testing.T) {
	assert.Equal(t, "username taken", (&HTTPError{Status: 400, Body: "username taken"}).Error())
	assert.Equal(t, "oops", (&MalformedResponseError{Body: "oops"}).Error())
	assert.Equal(t, "", (&HTTPError{Status: 500}).Error())
}
