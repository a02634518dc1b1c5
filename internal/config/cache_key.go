package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// LearnerSessionKey returns the cache key for a learner's login session.
func (r *CacheKeyStruct) LearnerSessionKey(learnerID int) string {
	return fmt.Sprintf("login:%d", learnerID)
}

// LearnerActiveExamKey returns the cache key for a learner's currently active exam.
func (r *CacheKeyStruct) LearnerActiveExamKey(learnerID int) string {
	return fmt.Sprintf("learner:%d:active_exam", learnerID)
}

// LearnerExamStartKey returns the cache key for a learner's exam start timestamp.
func (r *CacheKeyStruct) LearnerExamStartKey(examID string, learnerID int) string {
	return fmt.Sprintf("learner:%d:exam:%s:session_start", learnerID, examID)
}

// LearnerAnswersKey returns the cache key for a learner's in-progress answers.
func (r *CacheKeyStruct) LearnerAnswersKey(examID string, learnerID int) string {
	return fmt.Sprintf("learner:%d:exam:%s:answers", learnerID, examID)
}

// ExamPayloadKey returns the cache key for a published exam's paper payload.
func (r *CacheKeyStruct) ExamPayloadKey(examID string) string {
	return fmt.Sprintf("exam:%s:payload", examID)
}

var CacheKey = NewCacheKeyStruct()
