package stream

import "testing"

func TestParseMagnet_HashAndTrackers(t *testing.T) {
	magnet := "magnet:?xt=urn:btih:ABCDEF0123456789ABCDEF0123456789ABCDEF01&tr=http://t1&tr=http://t2"

	hash, trackers, ok := ParseMagnet(magnet)
	if !ok {
		t.Fatal("expected magnet to parse")
	}
	if hash != "abcdef0123456789abcdef0123456789abcdef01" {
		t.Fatalf("expected lowercased hash, got %q", hash)
	}
	if len(trackers) != 2 || trackers[0] != "http://t1" || trackers[1] != "http://t2" {
		t.Fatalf("unexpected trackers: %v", trackers)
	}
}

func TestParseMagnet_HTMLEntities(t *testing.T) {
	magnet := "magnet:?xt=urn:btih:abcdef0123456789abcdef0123456789abcdef01&amp;tr=http://t1"

	hash, trackers, ok := ParseMagnet(magnet)
	if !ok {
		t.Fatal("expected magnet to parse")
	}
	if hash != "abcdef0123456789abcdef0123456789abcdef01" {
		t.Fatalf("unexpected hash: %q", hash)
	}
	if len(trackers) != 1 || trackers[0] != "http://t1" {
		t.Fatalf("expected entity-decoded tracker, got %v", trackers)
	}
}

func TestParseMagnet_NoHash(t *testing.T) {
	if _, _, ok := ParseMagnet("magnet:?dn=whatever&tr=http://t1"); ok {
		t.Fatal("expected magnet without btih to be rejected")
	}
}

func TestParseMagnet_ShortHash(t *testing.T) {
	if _, _, ok := ParseMagnet("magnet:?xt=urn:btih:abcdef"); ok {
		t.Fatal("expected short hash to be rejected")
	}
}
