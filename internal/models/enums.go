package models

import (
	"fmt"
	"strings"
)

// normalizeEnum lowercases and maps "-" and " " to "_" so "Walk-In" parses as walk_in
func normalizeEnum(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "-", "_")
	return strings.ReplaceAll(s, " ", "_")
}

func parseEnum[T ~string](kind, raw string, values []T) (T, error) {
	n := normalizeEnum(raw)
	for _, v := range values {
		if string(v) == n {
			return v, nil
		}
	}
	return "", fmt.Errorf("invalid %s %q", kind, raw)
}

func containsEnum[T ~string](values []T, v T) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}

// Gender of a lead
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

var genders = []Gender{GenderMale, GenderFemale, GenderOther}

// ParseGender parses a gender value case-insensitively
func ParseGender(s string) (Gender, error) { return parseEnum("gender", s, genders) }

// Valid reports whether g is in the closed set
func (g Gender) Valid() bool { return containsEnum(genders, g) }

// Employment status of a lead
type Employment string

const (
	EmploymentWorking    Employment = "working"
	EmploymentStudent    Employment = "student"
	EmploymentUnemployed Employment = "unemployed"
)

var employments = []Employment{EmploymentWorking, EmploymentStudent, EmploymentUnemployed}

// ParseEmployment parses an employment value case-insensitively
func ParseEmployment(s string) (Employment, error) { return parseEnum("employment", s, employments) }

// Valid reports whether e is in the closed set
func (e Employment) Valid() bool { return containsEnum(employments, e) }

// FitnessLevel of a lead
type FitnessLevel string

const (
	FitnessBeginner     FitnessLevel = "beginner"
	FitnessIntermediate FitnessLevel = "intermediate"
	FitnessAdvanced     FitnessLevel = "advanced"
)

var fitnessLevels = []FitnessLevel{FitnessBeginner, FitnessIntermediate, FitnessAdvanced}

// ParseFitnessLevel parses a fitness level case-insensitively
func ParseFitnessLevel(s string) (FitnessLevel, error) {
	return parseEnum("fitness level", s, fitnessLevels)
}

// Valid reports whether f is in the closed set
func (f FitnessLevel) Valid() bool { return containsEnum(fitnessLevels, f) }

// LeadSource records how a lead heard about the club
type LeadSource string

const (
	SourceWebsite       LeadSource = "website"
	SourceFriend        LeadSource = "friend"
	SourceReferral      LeadSource = "referral"
	SourceWalkIn        LeadSource = "walk_in"
	SourceSocialMedia   LeadSource = "social_media"
	SourceAdvertisement LeadSource = "advertisement"
	SourceOther         LeadSource = "other"
)

var leadSources = []LeadSource{
	SourceWebsite, SourceFriend, SourceReferral, SourceWalkIn,
	SourceSocialMedia, SourceAdvertisement, SourceOther,
}

// ParseLeadSource parses a lead source; "walk-in" and "Social Media" are accepted
func ParseLeadSource(s string) (LeadSource, error) { return parseEnum("lead source", s, leadSources) }

// Valid reports whether s is in the closed set
func (s LeadSource) Valid() bool { return containsEnum(leadSources, s) }

// LeadStatus is the lifecycle state of a lead
type LeadStatus string

const (
	StatusNew       LeadStatus = "new"
	StatusContacted LeadStatus = "contacted"
	// Interested, Trial and Negotiating are reserved values; only the
	// extended lifecycle graph transitions through them.
	StatusInterested  LeadStatus = "interested"
	StatusTrial       LeadStatus = "trial"
	StatusNegotiating LeadStatus = "negotiating"
	StatusConverted   LeadStatus = "converted"
	StatusLost        LeadStatus = "lost"
)

var leadStatuses = []LeadStatus{
	StatusNew, StatusContacted, StatusInterested, StatusTrial,
	StatusNegotiating, StatusConverted, StatusLost,
}

// LeadStatuses returns every valid status value in funnel order
func LeadStatuses() []LeadStatus {
	out := make([]LeadStatus, len(leadStatuses))
	copy(out, leadStatuses)
	return out
}

// ParseLeadStatus parses a status case-insensitively
func ParseLeadStatus(s string) (LeadStatus, error) { return parseEnum("lead status", s, leadStatuses) }

// Valid reports whether s is in the closed set
func (s LeadStatus) Valid() bool { return containsEnum(leadStatuses, s) }

// IsTerminal reports whether no transition may leave s
func (s LeadStatus) IsTerminal() bool {
	return s == StatusConverted || s == StatusLost
}

// StaffRole is the job category of a staff member
type StaffRole string

const (
	RoleTrainer StaffRole = "trainer"
	RoleSales   StaffRole = "sales"
	RoleManager StaffRole = "manager"
	RoleOther   StaffRole = "other"
)

var staffRoles = []StaffRole{RoleTrainer, RoleSales, RoleManager, RoleOther}

// ParseStaffRole parses a role case-insensitively
func ParseStaffRole(s string) (StaffRole, error) { return parseEnum("staff role", s, staffRoles) }

// Valid reports whether r is in the closed set
func (r StaffRole) Valid() bool { return containsEnum(staffRoles, r) }
