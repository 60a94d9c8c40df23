package storage

import "testing"

func TestBuildPhotoPath(t *testing.T) {
	path, err := BuildObjectPath(PurposePhoto, PathParams{PhotoID: "01HZX4", Extension: "JPG"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if path != "photos/01HZX4.jpg" {
		t.Fatalf("unexpected path %q", path)
	}
}

func TestBuildProductImagePath(t *testing.T) {
	path, err := BuildObjectPath(PurposeProductImage, PathParams{ProductID: "P1", FileName: "front.png"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if path != "products/P1/front.png" {
		t.Fatalf("unexpected path %q", path)
	}
}

func TestBuildObjectPathRejectsInvalidSegment(t *testing.T) {
	if _, err := BuildObjectPath(PurposePhoto, PathParams{PhotoID: "../bad", Extension: "jpg"}); err == nil {
		t.Fatalf("expected error for invalid segment")
	}
	if _, err := BuildObjectPath(PurposePhoto, PathParams{PhotoID: "id", Extension: "j.pg"}); err == nil {
		t.Fatalf("expected error for dotted extension")
	}
}

func TestBuildObjectPathUnknownPurpose(t *testing.T) {
	if _, err := BuildObjectPath(ObjectPurpose("mystery"), PathParams{}); err == nil {
		t.Fatalf("expected error for unknown purpose")
	}
}
