package ingest

// schema.go declares, per record kind, the required column set of the
// uploaded spreadsheet. Headers are the exact Korean strings of the
// source files; matching is case- and whitespace-sensitive after a trim.

// DepartmentKPI column headers.
const (
	colKPIYear         = "평가년도"
	colKPICollege      = "단과대학"
	colKPIDepartment   = "학과"
	colKPIEmployment   = "졸업생 취업률 (%)"
	colKPIFullTime     = "전임교원 수 (명)"
	colKPIVisiting     = "초빙교원 수 (명)"
	colKPITechTransfer = "연간 기술이전 수입액 (억원)"
	colKPIConferences  = "국제학술대회 개최 횟수"
)

// Publication column headers.
const (
	colPubID            = "논문ID"
	colPubDate          = "게재일"
	colPubCollege       = "단과대학"
	colPubDepartment    = "학과"
	colPubTitle         = "논문제목"
	colPubLeadAuthor    = "주저자"
	colPubCoAuthors     = "참여저자"
	colPubJournalName   = "학술지명"
	colPubJournalGrade  = "저널등급"
	colPubImpactFactor  = "Impact Factor"
	colPubProjectLinked = "과제연계여부"
)

// ResearchProject column headers.
const (
	colPrjExecutionID   = "집행ID"
	colPrjNumber        = "과제번호"
	colPrjName          = "과제명"
	colPrjInvestigator  = "연구책임자"
	colPrjDepartment    = "소속학과"
	colPrjFundingAgency = "지원기관"
	colPrjTotalBudget   = "총연구비"
	colPrjExecutionDate = "집행일자"
	colPrjExecutionItem = "집행항목"
	colPrjExecutionAmt  = "집행금액"
	colPrjStatus        = "상태"
	colPrjRemarks       = "비고"
)

// StudentRoster column headers.
const (
	colStuID            = "학번"
	colStuName          = "이름"
	colStuCollege       = "단과대학"
	colStuDepartment    = "학과"
	colStuGrade         = "학년"
	colStuProgramType   = "과정구분"
	colStuStatus        = "학적상태"
	colStuGender        = "성별"
	colStuAdmissionYear = "입학년도"
	colStuAdvisor       = "지도교수"
	colStuEmail         = "이메일"
)

var requiredColumns = map[Kind][]string{
	KindDepartmentKPI: {
		colKPIYear, colKPICollege, colKPIDepartment, colKPIEmployment,
		colKPIFullTime, colKPIVisiting, colKPITechTransfer, colKPIConferences,
	},
	KindPublication: {
		colPubID, colPubDate, colPubCollege, colPubDepartment, colPubTitle,
		colPubLeadAuthor, colPubCoAuthors, colPubJournalName, colPubJournalGrade,
		colPubImpactFactor, colPubProjectLinked,
	},
	KindResearchProject: {
		colPrjExecutionID, colPrjNumber, colPrjName, colPrjInvestigator,
		colPrjDepartment, colPrjFundingAgency, colPrjTotalBudget,
		colPrjExecutionDate, colPrjExecutionItem, colPrjExecutionAmt,
		colPrjStatus, colPrjRemarks,
	},
	KindStudentRoster: {
		colStuID, colStuName, colStuCollege, colStuDepartment, colStuGrade,
		colStuProgramType, colStuStatus, colStuGender, colStuAdmissionYear,
		colStuAdvisor, colStuEmail,
	},
}

// RequiredColumns returns the required header set for a kind, in file
// order. The slice must not be mutated.
func RequiredColumns(kind Kind) []string {
	return requiredColumns[kind]
}
