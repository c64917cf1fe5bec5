package ubnt

import (
	"fmt"

	"github.com/opencontainers/go-digest"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
)

// MediaTypeEntry is the media type of descriptors for entry content.
const MediaTypeEntry = "application/vnd.ubnt.firmware.entry.v1"

// Annotation keys set on entry descriptors.
const (
	// AnnotationFirmware holds the container's product name.
	AnnotationFirmware = "com.ubnt.firmware.name"

	// AnnotationFlags holds the entry flags as 0x-prefixed hex.
	AnnotationFlags = "com.ubnt.firmware.entry.flags"

	// AnnotationChecksum holds the recorded entry checksum as 0x-prefixed hex.
	AnnotationChecksum = "com.ubnt.firmware.entry.checksum"
)

// Digest reads the entry's content and returns its SHA-256 digest.
func (e *FileEntry) Digest() (digest.Digest, error) {
	d := digest.Canonical.Digester()
	if _, err := e.Extract(d.Hash()); err != nil {
		return "", err
	}
	return d.Digest(), nil
}

// Descriptor returns a content descriptor for the entry.
// The entry name is stored under the OCI title annotation.
func (e *FileEntry) Descriptor() (ocispec.Descriptor, error) {
	dgst, err := e.Digest()
	if err != nil {
		return ocispec.Descriptor{}, err
	}
	return ocispec.Descriptor{
		MediaType: MediaTypeEntry,
		Digest:    dgst,
		Size:      int64(e.length),
		Annotations: map[string]string{
			ocispec.AnnotationTitle: e.name,
			AnnotationFlags:         fmt.Sprintf("0x%08x", e.flags),
			AnnotationChecksum:      fmt.Sprintf("0x%08x", e.checksum),
		},
	}, nil
}

// Descriptors returns a descriptor for every entry, in Entries order.
// Each descriptor also carries the container name.
func (c *Container) Descriptors() ([]ocispec.Descriptor, error) {
	descs := make([]ocispec.Descriptor, 0, len(c.order))
	for _, e := range c.Entries() {
		desc, err := e.Descriptor()
		if err != nil {
			return nil, err
		}
		desc.Annotations[AnnotationFirmware] = c.name
		descs = append(descs, desc)
	}
	return descs, nil
}
