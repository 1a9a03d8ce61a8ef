package version_test

import (
	"strings"
	"testing"

	"github.com/museumops/curio/common/version"
)

func TestInfoContainsFields(t *testing.T) {
	info := version.Info()
	for _, want := range []string{version.Version, version.GitCommit, version.BuildTime} {
		if !strings.Contains(info, want) {
			t.Errorf("Info() = %q, missing %q", info, want)
		}
	}
}

func TestUserAgent(t *testing.T) {
	if got := version.UserAgent(); got != "curio/"+version.Version {
		t.Errorf("UserAgent() = %q", got)
	}
}
