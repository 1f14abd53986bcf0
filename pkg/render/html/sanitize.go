package html

import (
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	labelPolicyOnce sync.Once
	labelPolicyVal  *bluemonday.Policy
)

// labelPolicy allows the inline formatting schema authors put in titles and
// descriptions and strips everything else.
func labelPolicy() *bluemonday.Policy {
	labelPolicyOnce.Do(func() {
		policy := bluemonday.StrictPolicy()
		policy.AllowElements("em", "strong", "code", "br", "span")
		policy.AllowAttrs("class").OnElements("span", "code")
		policy.AllowStandardURLs()
		policy.AllowAttrs("href").OnElements("a")
		policy.RequireNoFollowOnLinks(true)
		labelPolicyVal = policy
	})
	return labelPolicyVal
}
