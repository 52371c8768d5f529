package workorder

import (
	"errors"
	"fleetcare/bizerror"
	"fleetcare/client/s3"
	"fleetcare/domain"
	"fleetcare/idgen"
	"fleetcare/persistence"
	"fleetcare/session"
	"io"
	"path"
	"strings"
	"time"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
	"github.com/fundwit/go-commons/types"
	"github.com/google/uuid"
	"github.com/jinzhu/gorm"
	"github.com/sirupsen/logrus"
)

var (
	UploadEvidenceFunc = UploadEvidence
	OpenEvidenceFunc   = OpenEvidence
)

type EvidenceUpload struct {
	FileName    string
	ContentType string
	Size        int64
	Content     io.Reader
}

// UploadEvidence stores the file in the evidence bucket and records it on the work order.
func UploadEvidence(workOrderID types.ID, u *EvidenceUpload, s *session.Session) (*domain.WorkOrderEvidence, error) {
	if !s.Perms.CanWorkOnOrders() {
		return nil, bizerror.ErrForbidden
	}
	db := persistence.ActiveDataSourceManager.GormDB(s.Context)
	if _, err := findMutableWorkOrder(db, workOrderID); err != nil {
		return nil, err
	}

	key := "work-orders/" + workOrderID.String() + "/" + uuid.New().String() + strings.ToLower(path.Ext(u.FileName))
	if err := s3.PutObjectFunc(key, u.Content, s, oss.ContentType(u.ContentType)); err != nil {
		return nil, err
	}

	evidence := domain.WorkOrderEvidence{ID: idgen.NextID(idWorker), WorkOrderID: workOrderID, ObjectKey: key,
		FileName: u.FileName, ContentType: u.ContentType, Size: u.Size, UploaderID: s.Identity.ID, CreateTime: time.Now()}
	err := db.Transaction(func(tx *gorm.DB) error {
		if _, err := findMutableWorkOrder(tx, workOrderID); err != nil {
			return err
		}
		return tx.Create(&evidence).Error
	})
	if err != nil {
		if delErr := s3.DeleteObjectFunc(key, s); delErr != nil {
			logrus.Warnf("failed to remove orphan evidence object %s: %v", key, delErr)
		}
		return nil, err
	}
	return &evidence, nil
}

// OpenEvidence returns the evidence record with a reader of its content, the caller closes the reader.
func OpenEvidence(workOrderID, evidenceID types.ID, s *session.Session) (*domain.WorkOrderEvidence, io.ReadCloser, error) {
	evidence := domain.WorkOrderEvidence{}
	db := persistence.ActiveDataSourceManager.GormDB(s.Context)
	if err := db.Where("id = ? AND work_order_id = ?", evidenceID, workOrderID).First(&evidence).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, bizerror.NotFound("evidence", evidenceID)
		}
		return nil, nil, err
	}
	r, err := s3.GetObjectFunc(evidence.ObjectKey, s)
	if err != nil {
		if serErr, ok := err.(oss.ServiceError); ok && serErr.Code == "NoSuchKey" {
			return nil, nil, bizerror.NotFound("evidence", evidenceID)
		}
		return nil, nil, err
	}
	return &evidence, r, nil
}
