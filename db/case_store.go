package db

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/wendylandcan/liqingai/models"
)

var ErrCaseNotFound = errors.New("case not found")

// CaseStore is the persistence contract for cases. The remote store is
// read via polling, so every method takes the caller's context.
type CaseStore interface {
	Insert(ctx context.Context, c *models.Case) error
	FetchByID(ctx context.Context, id string) (*models.Case, error)
	FetchByJoinCode(ctx context.Context, code string) (*models.Case, error)
	FetchByParticipant(ctx context.Context, userID string) ([]*models.Case, error)
	Update(ctx context.Context, id string, patch *models.CasePatch) error
	Delete(ctx context.Context, id string) error
}

// MongoCaseStore stores cases in the "cases" collection with snake_case
// field names and translates patches into partial $set/$unset updates.
type MongoCaseStore struct {
	coll *mongo.Collection
}

func NewMongoCaseStore() *MongoCaseStore {
	return &MongoCaseStore{coll: CasesCollection}
}

func (s *MongoCaseStore) Insert(ctx context.Context, c *models.Case) error {
	if _, err := s.coll.InsertOne(ctx, c); err != nil {
		return fmt.Errorf("failed to insert case: %w", err)
	}
	return nil
}

func (s *MongoCaseStore) FetchByID(ctx context.Context, id string) (*models.Case, error) {
	return s.fetchOne(ctx, bson.M{"_id": id})
}

func (s *MongoCaseStore) FetchByJoinCode(ctx context.Context, code string) (*models.Case, error) {
	return s.fetchOne(ctx, bson.M{"join_code": code})
}

func (s *MongoCaseStore) fetchOne(ctx context.Context, filter bson.M) (*models.Case, error) {
	var c models.Case
	err := s.coll.FindOne(ctx, filter).Decode(&c)
	if err == mongo.ErrNoDocuments {
		return nil, ErrCaseNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch case: %w", err)
	}
	return &c, nil
}

func (s *MongoCaseStore) FetchByParticipant(ctx context.Context, userID string) ([]*models.Case, error) {
	filter := bson.M{"$or": []bson.M{
		{"plaintiff_id": userID},
		{"defendant_id": userID},
	}}
	cur, err := s.coll.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list cases: %w", err)
	}
	defer cur.Close(ctx)

	var cases []*models.Case
	for cur.Next(ctx) {
		var c models.Case
		if err := cur.Decode(&c); err != nil {
			return nil, fmt.Errorf("failed to decode case: %w", err)
		}
		cases = append(cases, &c)
	}
	return cases, cur.Err()
}

func (s *MongoCaseStore) Update(ctx context.Context, id string, patch *models.CasePatch) error {
	update := patchToUpdate(patch)
	res, err := s.coll.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to update case: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrCaseNotFound
	}
	return nil
}

func (s *MongoCaseStore) Delete(ctx context.Context, id string) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete case: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrCaseNotFound
	}
	return nil
}

// patchToUpdate translates a CasePatch into the store's snake_case field
// naming. Only fields present in the patch are written.
func patchToUpdate(p *models.CasePatch) bson.M {
	set := bson.M{}
	if p.Stage != nil {
		set["stage"] = *p.Stage
	}
	if p.Title != nil {
		set["title"] = *p.Title
	}
	if p.DefendantID != nil {
		set["defendant_id"] = *p.DefendantID
	}
	if p.PlaintiffStatement != nil {
		set["plaintiff_statement"] = *p.PlaintiffStatement
	}
	if p.PlaintiffDemand != nil {
		set["plaintiff_demand"] = *p.PlaintiffDemand
	}
	if p.DefendantDefense != nil {
		set["defendant_defense"] = *p.DefendantDefense
	}
	if p.DefendantDemand != nil {
		set["defendant_demand"] = *p.DefendantDemand
	}
	if p.PlaintiffRebuttal != nil {
		set["plaintiff_rebuttal"] = *p.PlaintiffRebuttal
	}
	if p.DefendantRebuttal != nil {
		set["defendant_rebuttal"] = *p.DefendantRebuttal
	}
	if p.PlaintiffEvidence != nil {
		set["plaintiff_evidence"] = *p.PlaintiffEvidence
	}
	if p.DefendantEvidence != nil {
		set["defendant_evidence"] = *p.DefendantEvidence
	}
	if p.DisputePoints != nil {
		set["dispute_points"] = *p.DisputePoints
	}
	if p.Fingerprint != nil {
		set["fingerprint"] = *p.Fingerprint
	}
	if p.JudgePersona != nil {
		set["judge_persona"] = *p.JudgePersona
	}
	if p.Verdict != nil {
		set["verdict"] = *p.Verdict
	}
	if p.DefaultJudged != nil {
		set["default_judged"] = *p.DefaultJudged
	}
	set["updated_at"] = nowFunc()

	update := bson.M{"$set": set}
	if p.ClearVerdict {
		update["$unset"] = bson.M{"verdict": ""}
	}
	return update
}
