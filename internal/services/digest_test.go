package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDigestBody(t *testing.T) {
	body := DigestBody(CountyDigest{
		AdminName:      "Niamh",
		Counties:       []string{"Cork", "Kerry"},
		NewIssues:      4,
		NewSuggestions: 2,
		NewAppraisals:  11,
	})

	assert.Contains(t, body, "Hi Niamh,")
	assert.Contains(t, body, "Cork, Kerry")
	assert.Contains(t, body, "New issues:      4")
	assert.Contains(t, body, "New suggestions: 2")
	assert.Contains(t, body, "New appraisals:  11")
}

func TestDigestBodyNoCounties(t *testing.T) {
	body := DigestBody(CountyDigest{AdminName: "Niamh"})
	assert.NotContains(t, body, " for ")
}
