package cdn

import "encoding/json"

// FileAsset is a file the CDN has accepted. It is only built from a
// successful CDN response, so all three fields are non-empty.
type FileAsset struct {
	fileToken string
	editKey   string
	fileName  string
}

func newFileAsset(fileToken, editKey, fileName string) FileAsset {
	return FileAsset{
		fileToken: fileToken,
		editKey:   editKey,
		fileName:  fileName,
	}
}

// FileToken is the identifier the CDN assigned to the file.
func (a FileAsset) FileToken() string {
	return a.fileToken
}

// EditKey is the secret needed to delete the file later.
func (a FileAsset) EditKey() string {
	return a.editKey
}

// FileName is the name under which the CDN stored the file.
func (a FileAsset) FileName() string {
	return a.fileName
}

func (a FileAsset) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]string{
		"file_token": a.fileToken,
		"edit_key":   a.editKey,
		"file_name":  a.fileName,
	})
}
