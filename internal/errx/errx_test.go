package errx

import (
	"errors"
	"fmt"
	"testing"
)

func TestE(t *testing.T) {
	t.Run("returns nil for nil error", func(t *testing.T) {
		if err := E("sharelink.service.Create", Invalid, nil); err != nil {
			t.Errorf("E() with nil error = %v, want nil", err)
		}
	})

	t.Run("wraps error with op and kind", func(t *testing.T) {
		base := errors.New("token already exists")
		err := E("sharelink.repo.CreateLink", Conflict, base)

		var e *Error
		if !errors.As(err, &e) {
			t.Fatal("E() did not return *Error")
		}
		if e.Op != "sharelink.repo.CreateLink" {
			t.Errorf("Op = %q, want %q", e.Op, "sharelink.repo.CreateLink")
		}
		if e.Kind != Conflict {
			t.Errorf("Kind = %v, want %v", e.Kind, Conflict)
		}
		if !errors.Is(err, base) {
			t.Error("wrapped error is not reachable via errors.Is")
		}
	})
}

func TestError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "op and wrapped error",
			err:  &Error{Op: "sharelink.service.Revoke", Err: errors.New("boom")},
			want: "sharelink.service.Revoke: boom",
		},
		{
			name: "wrapped error only",
			err:  &Error{Err: errors.New("boom")},
			want: "boom",
		},
		{
			name: "op only",
			err:  &Error{Op: "sharelink.service.Revoke"},
			want: "sharelink.service.Revoke",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestKind_String(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{Unknown, "Unknown"},
		{NotFound, "NotFound"},
		{Conflict, "Conflict"},
		{Invalid, "Invalid"},
		{Unauthorized, "Unauthorized"},
		{Forbidden, "Forbidden"},
		{Unavailable, "Unavailable"},
		{Internal, "Internal"},
		{Kind(42), "Kind(42)"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.kind.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestKindOf(t *testing.T) {
	t.Run("extracts kind from wrapped error", func(t *testing.T) {
		err := E("op", Unavailable, errors.New("db down"))
		if got := KindOf(err); got != Unavailable {
			t.Errorf("KindOf() = %v, want %v", got, Unavailable)
		}
	})

	t.Run("finds kind through further wrapping", func(t *testing.T) {
		inner := E("sharelink.repo.GetLinkByToken", NotFound, errors.New("no rows"))
		outer := fmt.Errorf("evaluate: %w", inner)
		if got := KindOf(outer); got != NotFound {
			t.Errorf("KindOf() = %v, want %v", got, NotFound)
		}
	})

	t.Run("returns Unknown for plain errors", func(t *testing.T) {
		if got := KindOf(errors.New("plain")); got != Unknown {
			t.Errorf("KindOf() = %v, want %v", got, Unknown)
		}
	})

	t.Run("returns Unknown for nil", func(t *testing.T) {
		if got := KindOf(nil); got != Unknown {
			t.Errorf("KindOf(nil) = %v, want %v", got, Unknown)
		}
	})
}

func TestOpOf(t *testing.T) {
	t.Run("extracts op from wrapped error", func(t *testing.T) {
		err := E("sharelink.service.UpdateSettings", Invalid, errors.New("bad expiry"))
		if got := OpOf(err); got != "sharelink.service.UpdateSettings" {
			t.Errorf("OpOf() = %q, want %q", got, "sharelink.service.UpdateSettings")
		}
	})

	t.Run("returns empty string for plain errors", func(t *testing.T) {
		if got := OpOf(errors.New("plain")); got != "" {
			t.Errorf("OpOf() = %q, want empty", got)
		}
	})
}
