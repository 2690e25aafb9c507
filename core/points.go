package core

import "fmt"

// PointsCategory classifies a points award.
type PointsCategory string

const (
	CategoryFCPF        PointsCategory = "FC_PF"
	CategoryFCExtreme   PointsCategory = "FC_EXTREME"
	CategoryFCUnreal    PointsCategory = "FC_UNREAL"
	CategoryFCSavage    PointsCategory = "FC_SAVAGE"
	CategoryFCCriterion PointsCategory = "FC_CRITERION"
	CategoryFCUltimate  PointsCategory = "FC_ULTIMATE"
	CategorySavage1     PointsCategory = "SAVAGE_1"
	CategorySavage2     PointsCategory = "SAVAGE_2"
	CategorySavage3     PointsCategory = "SAVAGE_3"
	CategorySavage4_1   PointsCategory = "SAVAGE_4_1"
	CategorySavage4_2   PointsCategory = "SAVAGE_4_2"
	CategoryVet         PointsCategory = "VET"
)

type categoryInfo struct {
	points  int64
	oneTime bool
}

var categories = map[PointsCategory]categoryInfo{
	CategoryFCPF:        {points: 10},
	CategoryFCExtreme:   {points: 10},
	CategoryFCUnreal:    {points: 10},
	CategoryFCSavage:    {points: 10},
	CategoryFCCriterion: {points: 10},
	CategoryFCUltimate:  {points: 10},
	CategorySavage1:     {points: 20, oneTime: true},
	CategorySavage2:     {points: 20, oneTime: true},
	CategorySavage3:     {points: 30, oneTime: true},
	CategorySavage4_1:   {points: 30, oneTime: true},
	CategorySavage4_2:   {points: 40, oneTime: true},
	CategoryVet:         {points: 10},
}

// Points is the award value of the category.
func (c PointsCategory) Points() int64 { return categories[c].points }

// OneTime reports whether the category may be awarded once per member per tier.
func (c PointsCategory) OneTime() bool { return categories[c].oneTime }

// Validate rejects unknown categories.
func (c PointsCategory) Validate() error {
	if _, ok := categories[c]; !ok {
		return fmt.Errorf("unknown points category %q", string(c))
	}
	return nil
}
