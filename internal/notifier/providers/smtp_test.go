package providers

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildMessage(t *testing.T) {
	s := NewSMTPSender("smtp.example.com", 587, "bot", "pw", "bot@example.com")
	msg := string(s.buildMessage("me@example.com", "like4me - Mar 15", "<p>hi</p>", "hi"))

	assert.True(t, strings.HasPrefix(msg, "From: bot@example.com\r\nTo: me@example.com\r\n"))
	assert.Contains(t, msg, "Subject: like4me - Mar 15\r\n")
	assert.Contains(t, msg, "Content-Type: text/plain; charset=\"utf-8\"\r\n\r\nhi\r\n")
	assert.Contains(t, msg, "Content-Type: text/html; charset=\"utf-8\"\r\n\r\n<p>hi</p>\r\n")
	assert.True(t, strings.HasSuffix(msg, "--"+boundary+"--\r\n"))
	assert.NotContains(t, msg, "pw")
}

func TestEncodeSubject(t *testing.T) {
	assert.Equal(t, "plain", encodeSubject("plain"))
	assert.True(t, strings.HasPrefix(encodeSubject("봄 산책"), "=?utf-8?"))
}
