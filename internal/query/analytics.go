package query

// Fixed statements for the analytic tools. These take no caller-supplied
// filters: the entire statement shape is decided here, and the safety gate
// appends the (low, tool-specific) row cap.

// overviewSQL returns exactly one row even over an empty table: aggregates
// without GROUP BY yield zero counts and NULL averages, never zero rows.
const overviewSQL = `SELECT
  COUNT(*) AS total,
  COUNT(*) FILTER (WHERE LOWER(gender) IN ('male', 'm')) AS male,
  COUNT(*) FILTER (WHERE LOWER(gender) IN ('female', 'f')) AS female,
  ROUND(AVG(age), 1) AS avg_age,
  COUNT(*) FILTER (WHERE echo_ef IS NOT NULL) AS with_echo,
  COUNT(*) FILTER (WHERE mri_ef IS NOT NULL) AS with_mri,
  COUNT(*) FILTER (WHERE echo_ef IS NOT NULL AND mri_ef IS NOT NULL) AS with_both_echo_mri
FROM patients`

const demographicsAgeGenderSQL = `SELECT
  CASE
    WHEN age < 30 THEN '18-29'
    WHEN age < 40 THEN '30-39'
    WHEN age < 50 THEN '40-49'
    WHEN age < 60 THEN '50-59'
    WHEN age < 70 THEN '60-69'
    ELSE '70+'
  END AS age_group,
  COUNT(*) FILTER (WHERE LOWER(gender) IN ('male', 'm')) AS male,
  COUNT(*) FILTER (WHERE LOWER(gender) IN ('female', 'f')) AS female
FROM patients
WHERE age IS NOT NULL
GROUP BY age_group
ORDER BY age_group`

const demographicsNationalitySQL = `SELECT nationality, COUNT(*) AS count
FROM patients
WHERE nationality IS NOT NULL AND nationality != ''
GROUP BY nationality
ORDER BY count DESC, nationality`

const enrollmentTrendsSQL = `SELECT
  DATE_TRUNC('month', enrollment_date) AS month,
  COUNT(*) AS enrolled
FROM patients
WHERE enrollment_date IS NOT NULL
GROUP BY DATE_TRUNC('month', enrollment_date)
ORDER BY month`

// intersectionsSQL counts patients per combination of available data
// modalities, most populated combinations first.
const intersectionsSQL = `SELECT
  (echo_ef IS NOT NULL) AS has_echo,
  (mri_ef IS NOT NULL) AS has_mri,
  (hba1c IS NOT NULL OR troponin_i IS NOT NULL) AS has_labs,
  EXISTS (SELECT 1 FROM patient_genomic_variants v WHERE v.dna_id = patients.dna_id) AS has_genomics,
  COUNT(*) AS patients
FROM patients
GROUP BY 1, 2, 3, 4
ORDER BY patients DESC, 1, 2, 3, 4`

const patientDetailsSQL = `SELECT
  dna_id, name, age, gender, nationality, current_city, current_city_category,
  enrollment_date, diabetes_mellitus, high_blood_pressure,
  echo_ef, mri_ef, hba1c, troponin_i,
  history_sudden_death, history_premature_cad,
  (SELECT COUNT(*) FROM patient_genomic_variants v WHERE v.dna_id = patients.dna_id) AS variant_count
FROM patients
WHERE dna_id = $1`

// Plans for the fixed-shape analytic tools.

func BuildRegistryOverview() *Plan   { return &Plan{Statement: overviewSQL} }
func BuildDemographicsAges() *Plan   { return &Plan{Statement: demographicsAgeGenderSQL} }
func BuildDemographicsOrigin() *Plan { return &Plan{Statement: demographicsNationalitySQL} }
func BuildEnrollmentTrends() *Plan   { return &Plan{Statement: enrollmentTrendsSQL} }
func BuildDataIntersections() *Plan  { return &Plan{Statement: intersectionsSQL} }
