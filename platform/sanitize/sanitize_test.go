package sanitize

import "testing"

func TestText(t *testing.T) {
	cases := map[string]string{
		"User denied Geolocation":                 "User denied Geolocation",
		"  <b>timeout</b>\n\nafter 15s ":          "timeout after 15s",
		"&lt;script&gt;alert(1)&lt;/script&gt;ok": "alert(1)ok",
		"tab\tand\x00null":                        "tab andnull",
		"":                                        "",
	}
	for in, want := range cases {
		if got := Text(in); got != want {
			t.Fatalf("Text(%q) = %q, want %q", in, got, want)
		}
	}
}
