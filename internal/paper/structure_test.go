package paper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hangulab/topik-practice-backend/internal/model"
)

func TestValidateStructures(t *testing.T) {
	require.NoError(t, ValidateStructures())
}

func TestStructurePartitionsPaper(t *testing.T) {
	for _, examType := range []model.ExamType{model.ExamTypeReading, model.ExamTypeListening} {
		seen := make(map[int]bool)
		for _, s := range Structure(examType) {
			for n := s.Start; n <= s.End; n++ {
				assert.Falsef(t, seen[n], "%s: question %d covered twice", examType, n)
				seen[n] = true
			}
		}
		assert.Lenf(t, seen, PaperSize, "%s: expected full coverage", examType)
		for n := 1; n <= PaperSize; n++ {
			assert.Truef(t, seen[n], "%s: question %d uncovered", examType, n)
		}
	}
}

func TestSectionFor(t *testing.T) {
	tests := []struct {
		name      string
		examType  model.ExamType
		number    int
		wantStart int
		wantEnd   int
		wantOK    bool
	}{
		{"reading first section", model.ExamTypeReading, 1, 1, 4, true},
		{"reading mid section", model.ExamTypeReading, 10, 9, 12, true},
		{"reading grouped pair", model.ExamTypeReading, 20, 19, 20, true},
		{"reading last", model.ExamTypeReading, 50, 48, 50, true},
		{"listening image choice", model.ExamTypeListening, 2, 1, 3, true},
		{"listening last pair", model.ExamTypeListening, 49, 49, 50, true},
		{"below range", model.ExamTypeReading, 0, 0, 0, false},
		{"above range", model.ExamTypeListening, 51, 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, ok := SectionFor(tt.examType, tt.number)
			require.Equal(t, tt.wantOK, ok)
			if ok {
				assert.Equal(t, tt.wantStart, s.Start)
				assert.Equal(t, tt.wantEnd, s.End)
			}
		})
	}
}

func TestIsSectionLeader(t *testing.T) {
	assert.True(t, IsSectionLeader(model.ExamTypeReading, 1))
	assert.True(t, IsSectionLeader(model.ExamTypeReading, 19))
	assert.False(t, IsSectionLeader(model.ExamTypeReading, 20))
	assert.True(t, IsSectionLeader(model.ExamTypeListening, 21))
	assert.False(t, IsSectionLeader(model.ExamTypeListening, 22))
	assert.False(t, IsSectionLeader(model.ExamTypeReading, 0))
}

func TestValidateSectionsRejectsMalformedTables(t *testing.T) {
	tests := []struct {
		name     string
		sections []Section
	}{
		{"empty", nil},
		{"gap", []Section{{Start: 1, End: 10}, {Start: 12, End: 50}}},
		{"overlap", []Section{{Start: 1, End: 10}, {Start: 10, End: 50}}},
		{"inverted", []Section{{Start: 4, End: 1}}},
		{"short", []Section{{Start: 1, End: 49}}},
		{"long", []Section{{Start: 1, End: 51}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateSections(model.ExamTypeReading, tt.sections)
			require.Error(t, err)

			var integrityErr *StructureIntegrityError
			assert.ErrorAs(t, err, &integrityErr)
		})
	}
}
