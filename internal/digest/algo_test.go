package digest

import "testing"

func TestParseAlgo(t *testing.T) {
	for _, name := range []string{"md5", "sha1", "sha224", "sha256", "sha384", "sha512"} {
		algo, err := ParseAlgo(name)
		if err != nil {
			t.Errorf("ParseAlgo(%q): %v", name, err)
		}
		if string(algo) != name {
			t.Errorf("ParseAlgo(%q) = %q", name, algo)
		}
	}
	for _, name := range []string{"", "crc32", "sha3", "SHA1"} {
		if _, err := ParseAlgo(name); err == nil {
			t.Errorf("ParseAlgo(%q) should fail", name)
		}
	}
}

func TestCommand(t *testing.T) {
	if got := SHA1.Command(); got != "sha1sum" {
		t.Errorf("Command = %q, want sha1sum", got)
	}
	if got := MD5.Command(); got != "md5sum" {
		t.Errorf("Command = %q, want md5sum", got)
	}
}

func TestSumVectors(t *testing.T) {
	payload := []byte("hello world")
	cases := map[Algo]string{
		MD5:    "5eb63bbbe01eeed093cb22bb8f5acdc3",
		SHA1:   "2aae6c35c94fcfb415dbe95f408b9ce91ee846ed",
		SHA256: "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9",
	}
	for algo, want := range cases {
		if got := Sum(algo, payload); got != want {
			t.Errorf("Sum(%s) = %q, want %q", algo, got, want)
		}
	}
}
