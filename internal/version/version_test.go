package version

import "testing"

func TestIsDevelopment(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		version string
		want    bool
	}{
		{
			name:    "devel",
			version: "devel",
			want:    true,
		},
		{
			name:    "unknown",
			version: "unknown",
			want:    true,
		},
		{
			name:    "empty",
			version: "",
			want:    true,
		},
		{
			name:    "dirty build",
			version: "v1.0.0-dirty",
			want:    true,
		},
		{
			name:    "pseudo version",
			version: "v0.0.0-0.20250101000000-abcdef123456",
			want:    true,
		},
		{
			name:    "release",
			version: "v1.2.3",
			want:    false,
		},
		{
			name:    "release without prefix",
			version: "1.2.3",
			want:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := IsDevelopment(tt.version); got != tt.want {
				t.Errorf("IsDevelopment(%q) = %v, want %v", tt.version, got, tt.want)
			}
		})
	}
}

func TestParseMajor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		version string
		want    string
	}{
		{
			name:    "v prefix",
			version: "v2.1.0",
			want:    "2",
		},
		{
			name:    "no prefix",
			version: "10.0.1",
			want:    "10",
		},
		{
			name:    "unparseable",
			version: "devel",
			want:    "0",
		},
		{
			name:    "empty",
			version: "",
			want:    "0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := ParseMajor(tt.version); got != tt.want {
				t.Errorf("ParseMajor(%q) = %q, want %q", tt.version, got, tt.want)
			}
		})
	}
}

func TestCompatible(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		client string
		server string
		want   bool
	}{
		{name: "same major", client: "v1.4.0", server: "v1.0.2", want: true},
		{name: "different major", client: "v1.4.0", server: "v2.0.0", want: false},
		{name: "client devel", client: "devel", server: "v2.0.0", want: true},
		{name: "server dirty", client: "v1.0.0", server: "v2.0.0-dirty", want: true},
		{name: "missing client version", client: "", server: "v2.0.0", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Compatible(tt.client, tt.server); got != tt.want {
				t.Errorf("Compatible(%q, %q) = %v, want %v", tt.client, tt.server, got, tt.want)
			}
		})
	}
}
