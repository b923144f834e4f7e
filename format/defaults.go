package format

var (
	compatibleEPUB = Descriptor{
		Title:       "Compatible epub",
		Description: "All devices and apps except Kindles and Kobos",
		MediaType:   "application/epub+zip",
		Rel:         Acquisition,
		Kind:        EPUB,
	}
	htmlPage = Descriptor{
		Title:       "html",
		Description: "Read directly in the browser",
		MediaType:   "text/html",
		Rel:         Acquisition,
		Kind:        HTML,
	}
	jpegImage = Descriptor{
		MediaType: "image/jpeg",
		Rel:       Image,
		Kind:      JPEG,
	}
)

// withSuffix returns a copy of d registered under suffix.
func withSuffix(d Descriptor, suffix string) Descriptor {
	d.Suffix = suffix
	return d
}

// DefaultDescriptors returns the built-in descriptor table in priority order.
func DefaultDescriptors() []Descriptor {
	return []Descriptor{
		{
			Suffix:      "_advanced.epub",
			Title:       "Advanced epub",
			Description: "An advanced format that uses the latest technology not yet fully supported by most ereaders",
			MediaType:   "application/epub+zip",
			Rel:         Acquisition,
			Kind:        EPUB,
		},
		{
			Suffix:      ".kepub.epub",
			Title:       "kepub",
			Description: "Kobo devices and apps",
			MediaType:   "application/kepub+zip",
			Rel:         Acquisition,
			Kind:        EPUB,
		},
		withSuffix(compatibleEPUB, ".epub"),
		{
			Suffix:      ".azw3",
			Title:       "azw3",
			Description: "Kindle devices and apps",
			MediaType:   "application/x-mobipocket-ebook",
			Rel:         Acquisition,
			Kind:        AZW3,
		},
		{
			Suffix:      "_cropped.pdf",
			Title:       "Cropped pdf",
			Description: "Fixed page layout cropped tightly to content",
			MediaType:   "application/pdf",
			Rel:         Acquisition,
			Kind:        PDF,
		},
		{
			Suffix:      ".pdf",
			Title:       "pdf",
			Description: "Fixed page layout",
			MediaType:   "application/pdf",
			Rel:         Acquisition,
			Kind:        PDF,
		},
		withSuffix(htmlPage, ".html"),
		{
			Suffix:      ".txt",
			Title:       "txt",
			Description: "Plain text with no formatting",
			MediaType:   "text/plain",
			Rel:         Acquisition,
			Kind:        Text,
		},
		withSuffix(jpegImage, ".jpg"),
		{Suffix: ".png", MediaType: "image/png", Rel: Image, Kind: PNG},
		{Suffix: ".gif", MediaType: "image/gif", Rel: Image, Kind: GIF},
		withSuffix(htmlPage, ".htm"),
		withSuffix(jpegImage, ".jpeg"),
	}
}

// Default returns a registry holding DefaultDescriptors.
func Default() *Registry {
	r, err := NewRegistry(DefaultDescriptors()...)
	if err != nil {
		// The built-in table is fixed; an error here is a programming mistake.
		panic(err)
	}
	return r
}
