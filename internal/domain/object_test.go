package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePrefix(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty is absent", in: "", want: ""},
		{name: "no slash", in: "logs", want: "logs/"},
		{name: "one slash", in: "logs/", want: "logs/"},
		{name: "many slashes", in: "logs///", want: "logs/"},
		{name: "nested", in: "a/b/c", want: "a/b/c/"},
		{name: "only slashes", in: "//", want: "/"},
		{name: "leading slash kept", in: "/tmp", want: "/tmp/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizePrefix(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, NormalizePrefix(got), "must be idempotent")
			if got != "" {
				assert.True(t, strings.HasSuffix(got, "/"))
				assert.False(t, strings.HasSuffix(got, "//") && len(got) > 1)
			}
		})
	}
}

func TestDescriptorRendering(t *testing.T) {
	k := ObjectKey("photos/a.jpg")
	assert.Equal(t, "photos/a.jpg", k.String())
	assert.Equal(t, VersionedKey{Key: "photos/a.jpg"}, k.Identifier())

	v := VersionedKey{Key: "photos/a.jpg", VersionID: "v1"}
	assert.Equal(t, "photos/a.jpg (version v1)", v.String())
	assert.Equal(t, v, v.Identifier())
}

func TestCountsEmpty(t *testing.T) {
	assert.True(t, Counts{}.Empty())
	assert.False(t, Counts{TotalVersions: 1}.Empty())
	assert.False(t, Counts{VisibleObjects: 1, TotalVersions: 1}.Empty())
}

func TestRunConfigTarget(t *testing.T) {
	assert.Equal(t, "bucket/", RunConfig{Bucket: "bucket"}.Target())
	assert.Equal(t, "bucket/logs/", RunConfig{Bucket: "bucket", Prefix: "logs/"}.Target())
}
