package services

import (
	"io"

	"chirpchat/internal/enums"
	"chirpchat/internal/interfaces"
)

// FileManagerService is the attachment store surface: clients upload an
// image or GIF first and reference the returned opaque URL in their message
// payloads. The engine never re-validates reachability of stored URLs.
type FileManagerService struct {
	fileManager interfaces.FileManager
}

func NewFileManagerService(fileManager interfaces.FileManager) *FileManagerService {
	return &FileManagerService{
		fileManager: fileManager,
	}
}

func (fs *FileManagerService) UploadUserProfilePhoto(fileName string, file io.Reader, fileSize int64, contentType string) (string, error) {
	return fs.fileManager.UploadFile(fileName, file, fileSize, contentType, enums.FILE_BUCKET_USER_PROFILE)
}

func (fs *FileManagerService) UploadMessageAttachment(fileName string, file io.Reader, fileSize int64, contentType string) (string, error) {
	return fs.fileManager.UploadFile(fileName, file, fileSize, contentType, enums.FILE_BUCKET_MESSAGE_ATTACHMENT)
}
