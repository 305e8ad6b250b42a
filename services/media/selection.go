package media

import (
	"io"
	"mime/multipart"
	"strings"

	"coursehub/utils"
)

// File is one uploaded part of a multipart request.
type File struct {
	Name string
	Size int64
	Open func() (io.ReadCloser, error)
}

func FromMultipart(fh *multipart.FileHeader) File {
	return File{
		Name: fh.Filename,
		Size: fh.Size,
		Open: func() (io.ReadCloser, error) { return fh.Open() },
	}
}

var coverKeywords = []string{"cover", "image", "poster"}

// selectPrimary picks the first file whose extension maps to a video type. When no
// extension matches, file contents are sniffed. Returns -1 and "" when nothing qualifies.
func selectPrimary(files []File) (int, string) {
	for i, f := range files {
		if utils.IsVideoName(f.Name) {
			return i, utils.MediaTypeFromName(f.Name)
		}
	}
	for i, f := range files {
		if mt := sniff(f); strings.HasPrefix(mt, "video/") {
			return i, mt
		}
	}
	return -1, ""
}

// countVideoNames counts files whose extension maps to a video type.
func countVideoNames(files []File) int {
	n := 0
	for _, f := range files {
		if utils.IsVideoName(f.Name) {
			n++
		}
	}
	return n
}

// selectCover prefers a file named like a cover, then any raster image.
// The primary file is never considered.
func selectCover(files []File, primary int) int {
	for i, f := range files {
		if i == primary {
			continue
		}
		lower := strings.ToLower(f.Name)
		for _, kw := range coverKeywords {
			if strings.Contains(lower, kw) {
				return i
			}
		}
	}
	for i, f := range files {
		if i != primary && utils.IsCoverImageName(f.Name) {
			return i
		}
	}
	return -1
}

func sniff(f File) string {
	if f.Open == nil {
		return ""
	}
	r, err := f.Open()
	if err != nil {
		return ""
	}
	defer r.Close()
	mt, err := utils.SniffMediaType(r)
	if err != nil {
		return ""
	}
	return mt
}
