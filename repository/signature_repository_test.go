package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/camden-git/attendsysbackend/models"
)

func TestSignatureUpsertReplaces(t *testing.T) {
	repo := NewSignatureRepository(setupTestDB(t))

	sig := &models.FaceSignature{StudentID: "s1", EmbeddingModel: "arcface"}
	sig.SetEmbedding([]float32{0.1, 0.2, 0.3})

	replaced, err := repo.Upsert(sig)
	require.NoError(t, err)
	assert.False(t, replaced)

	updated := &models.FaceSignature{StudentID: "s1", EmbeddingModel: "arcface"}
	updated.SetEmbedding([]float32{0.4, 0.5, 0.6})
	replaced, err = repo.Upsert(updated)
	require.NoError(t, err)
	assert.True(t, replaced)

	stored, err := repo.GetByStudentID("s1")
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float32{0.4, 0.5, 0.6}, stored.GetEmbedding(), 0.0001)
	assert.Equal(t, 3, stored.Dimension)

	// still exactly one live signature per student
	all, err := repo.ListAll()
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestSignatureDelete(t *testing.T) {
	repo := NewSignatureRepository(setupTestDB(t))

	sig := &models.FaceSignature{StudentID: "s1", EmbeddingModel: "arcface"}
	sig.SetEmbedding([]float32{0.1, 0.2})
	_, err := repo.Upsert(sig)
	require.NoError(t, err)

	require.NoError(t, repo.DeleteByStudentID("s1"))
	_, err = repo.GetByStudentID("s1")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	err = repo.DeleteByStudentID("s1")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestEnrollIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	classRepo := NewClassRepository(db)
	studentRepo := NewStudentRepository(db)

	require.NoError(t, studentRepo.Create(&models.Student{ID: "s1", Name: "Student One"}))
	require.NoError(t, classRepo.Create(&models.Class{ID: "c1", Name: "Math"}))

	require.NoError(t, classRepo.Enroll("c1", "s1"))
	require.NoError(t, classRepo.Enroll("c1", "s1"))

	enrolled, err := classRepo.IsStudentEnrolled("c1", "s1")
	require.NoError(t, err)
	assert.True(t, enrolled)

	var count int64
	require.NoError(t, db.Model(&models.Enrollment{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestListByClassIDReturnsRosterOnly(t *testing.T) {
	db := setupTestDB(t)
	classRepo := NewClassRepository(db)
	studentRepo := NewStudentRepository(db)

	for _, id := range []string{"s1", "s2", "s3"} {
		require.NoError(t, studentRepo.Create(&models.Student{ID: id, Name: "Student " + id}))
	}
	require.NoError(t, classRepo.Create(&models.Class{ID: "c1", Name: "Math"}))
	require.NoError(t, classRepo.Enroll("c1", "s1"))
	require.NoError(t, classRepo.Enroll("c1", "s3"))

	roster, err := studentRepo.ListByClassID("c1")
	require.NoError(t, err)
	require.Len(t, roster, 2)

	ids := []string{roster[0].ID, roster[1].ID}
	assert.ElementsMatch(t, []string{"s1", "s3"}, ids)
}
