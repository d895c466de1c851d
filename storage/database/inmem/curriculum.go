package inmemdb

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/trezcool/mwalimu/core/curriculum"
)

type curriculumRepository struct {
	db *DB
}

var _ curriculum.Repository = (*curriculumRepository)(nil) // interface compliance check

func NewCurriculumRepository(db *DB) *curriculumRepository {
	return &curriculumRepository{db: db}
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	tt := *t
	return &tt
}

// Subjects

func (repo *curriculumRepository) CheckSubjectUniqueness(_ context.Context, name string, excludedID int) error {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, subj := range repo.db.subjects {
		if subj.ID != excludedID && strings.EqualFold(subj.Name, name) {
			return curriculum.ErrSubjectExists
		}
	}
	return nil
}

func (repo *curriculumRepository) CreateSubject(_ context.Context, subj curriculum.Subject) (curriculum.Subject, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	subj.ID = repo.db.nextID("subject")
	repo.db.subjects[subj.ID] = &subj
	return subj, nil
}

func (repo *curriculumRepository) QuerySubjects(_ context.Context) ([]curriculum.Subject, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	subjects := make([]curriculum.Subject, 0, len(repo.db.subjects))
	for _, subj := range repo.db.subjects {
		subjects = append(subjects, *subj)
	}
	sort.Slice(subjects, func(i, j int) bool {
		if subjects[i].Name != subjects[j].Name {
			return subjects[i].Name < subjects[j].Name
		}
		return subjects[i].ID < subjects[j].ID
	})
	return subjects, nil
}

func (repo *curriculumRepository) GetSubject(_ context.Context, id int) (curriculum.Subject, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if subj, ok := repo.db.subjects[id]; ok {
		return *subj, nil
	}
	return curriculum.Subject{}, curriculum.ErrSubjectNotFound
}

func (repo *curriculumRepository) UpdateSubject(_ context.Context, subj curriculum.Subject) (curriculum.Subject, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.subjects[subj.ID]; !ok {
		return curriculum.Subject{}, curriculum.ErrSubjectNotFound
	}
	repo.db.subjects[subj.ID] = &subj
	return subj, nil
}

// DeleteSubject cascades to milestones and activities; slots lose their subject affinity.
func (repo *curriculumRepository) DeleteSubject(_ context.Context, id int) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.subjects[id]; !ok {
		return curriculum.ErrSubjectNotFound
	}
	delete(repo.db.subjects, id)

	milestones := make(map[int]bool)
	for msID, ms := range repo.db.milestones {
		if ms.SubjectID == id {
			delete(repo.db.milestones, msID)
			milestones[msID] = true
		}
	}
	repo.db.deleteActivities(func(act *curriculum.Activity) bool { return milestones[act.MilestoneID] })

	for _, slot := range repo.db.slots {
		if slot.SubjectID != nil && *slot.SubjectID == id {
			slot.SubjectID = nil
		}
	}
	return nil
}

// Milestones

func copyMilestone(ms curriculum.Milestone) curriculum.Milestone {
	ms.TargetDate = copyTime(ms.TargetDate)
	return ms
}

func (repo *curriculumRepository) CreateMilestone(_ context.Context, ms curriculum.Milestone) (curriculum.Milestone, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.subjects[ms.SubjectID]; !ok {
		return curriculum.Milestone{}, curriculum.ErrSubjectNotFound
	}
	ms = copyMilestone(ms)
	ms.ID = repo.db.nextID("milestone")
	repo.db.milestones[ms.ID] = &ms
	return copyMilestone(ms), nil
}

func (repo *curriculumRepository) QueryMilestones(_ context.Context, subjectID int) ([]curriculum.Milestone, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	milestones := make([]curriculum.Milestone, 0, len(repo.db.milestones))
	for _, ms := range repo.db.milestones {
		if subjectID == 0 || ms.SubjectID == subjectID {
			milestones = append(milestones, copyMilestone(*ms))
		}
	}
	sort.Slice(milestones, func(i, j int) bool { return milestones[i].ID < milestones[j].ID })
	return milestones, nil
}

func (repo *curriculumRepository) GetMilestone(_ context.Context, id int) (curriculum.Milestone, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if ms, ok := repo.db.milestones[id]; ok {
		return copyMilestone(*ms), nil
	}
	return curriculum.Milestone{}, curriculum.ErrMilestoneNotFound
}

func (repo *curriculumRepository) UpdateMilestone(_ context.Context, ms curriculum.Milestone) (curriculum.Milestone, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.milestones[ms.ID]; !ok {
		return curriculum.Milestone{}, curriculum.ErrMilestoneNotFound
	}
	ms = copyMilestone(ms)
	repo.db.milestones[ms.ID] = &ms
	return copyMilestone(ms), nil
}

func (repo *curriculumRepository) DeleteMilestone(_ context.Context, id int) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.milestones[id]; !ok {
		return curriculum.ErrMilestoneNotFound
	}
	delete(repo.db.milestones, id)
	repo.db.deleteActivities(func(act *curriculum.Activity) bool { return act.MilestoneID == id })
	return nil
}

// Activities

// joinActivity copies `act` with the subject of its milestone. Must be called with a lock held.
func (repo *curriculumRepository) joinActivity(act curriculum.Activity) curriculum.Activity {
	act.CompletedAt = copyTime(act.CompletedAt)
	if ms, ok := repo.db.milestones[act.MilestoneID]; ok {
		act.SubjectID = ms.SubjectID
	}
	return act
}

func (repo *curriculumRepository) CreateActivity(_ context.Context, act curriculum.Activity) (curriculum.Activity, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.milestones[act.MilestoneID]; !ok {
		return curriculum.Activity{}, curriculum.ErrMilestoneNotFound
	}
	act = repo.joinActivity(act)
	act.ID = repo.db.nextID("activity")
	repo.db.activities[act.ID] = &act
	return repo.joinActivity(act), nil
}

func (repo *curriculumRepository) QueryActivities(_ context.Context, filter curriculum.ActivityFilter) ([]curriculum.Activity, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	acts := make([]curriculum.Activity, 0, len(repo.db.activities))
	for _, act := range repo.db.activities {
		if a := repo.joinActivity(*act); filter.Match(a) {
			acts = append(acts, a)
		}
	}
	sort.Slice(acts, func(i, j int) bool {
		if acts[i].MilestoneID != acts[j].MilestoneID {
			return acts[i].MilestoneID < acts[j].MilestoneID
		}
		if acts[i].OrderIndex != acts[j].OrderIndex {
			return acts[i].OrderIndex < acts[j].OrderIndex
		}
		return acts[i].ID < acts[j].ID
	})
	return acts, nil
}

func (repo *curriculumRepository) GetActivity(_ context.Context, id int) (curriculum.Activity, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if act, ok := repo.db.activities[id]; ok {
		return repo.joinActivity(*act), nil
	}
	return curriculum.Activity{}, curriculum.ErrActivityNotFound
}

func (repo *curriculumRepository) UpdateActivity(_ context.Context, act curriculum.Activity) (curriculum.Activity, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.activities[act.ID]; !ok {
		return curriculum.Activity{}, curriculum.ErrActivityNotFound
	}
	if _, ok := repo.db.milestones[act.MilestoneID]; !ok {
		return curriculum.Activity{}, curriculum.ErrMilestoneNotFound
	}
	act = repo.joinActivity(act)
	repo.db.activities[act.ID] = &act
	return repo.joinActivity(act), nil
}

func (repo *curriculumRepository) DeleteActivity(_ context.Context, id int) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.activities[id]; !ok {
		return curriculum.ErrActivityNotFound
	}
	repo.db.deleteActivities(func(act *curriculum.Activity) bool { return act.ID == id })
	return nil
}

func (repo *curriculumRepository) MilestoneProgress(_ context.Context) ([]curriculum.MilestoneProgress, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	byMilestone := make(map[int]*curriculum.MilestoneProgress, len(repo.db.milestones))
	progress := make([]curriculum.MilestoneProgress, 0, len(repo.db.milestones))
	for _, ms := range repo.db.milestones {
		progress = append(progress, curriculum.MilestoneProgress{
			MilestoneID: ms.ID,
			SubjectID:   ms.SubjectID,
			TargetDate:  copyTime(ms.TargetDate),
		})
	}
	sort.Slice(progress, func(i, j int) bool { return progress[i].MilestoneID < progress[j].MilestoneID })
	for i := range progress {
		byMilestone[progress[i].MilestoneID] = &progress[i]
	}

	for _, act := range repo.db.activities {
		mp, ok := byMilestone[act.MilestoneID]
		if !ok {
			continue
		}
		mp.Total++
		if !act.Pending() {
			mp.Completed++
		}
	}
	return progress, nil
}
