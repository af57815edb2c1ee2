package sqlinline

const QInsertGeneration = `--sql 3f1c7a92-5b1e-4d08-9c44-2a8f6e0d1b7c
insert into generations (
  id,
  model_id,
  model_type,
  prompt,
  status,
  prediction_id,
  assets,
  created_at,
  updated_at
)
values (
  $1::text,
  $2::text,
  $3::text,
  $4::text,
  $5::text,
  nullif($6::text, ''),
  '[]'::jsonb,
  now(),
  now()
);
`

const QUpdateGenerationStatus = `--sql 7d2e9b04-1f6a-4c3d-8e51-b0a4c7f2d9e8
update generations
set status = $2::text,
    prediction_id = coalesce(nullif($3::text, ''), prediction_id),
    assets = coalesce($4::jsonb, assets),
    error = nullif($5::text, ''),
    updated_at = now(),
    completed_at = case when $2::text in ('succeeded', 'failed', 'network_error') then now() else completed_at end
where id = $1::text;
`

const QSelectGeneration = `--sql a4b8d316-9c2f-4e7a-b5d0-3e6f1a8c4d92
select id, model_id, model_type, prompt, status, coalesce(prediction_id, ''), assets, coalesce(error, ''), created_at, completed_at
from generations
where id = $1::text
limit 1;
`

const QSelectRecentGenerations = `--sql c9e2f5a8-3d14-4b6c-a7e9-8f0b2d5c1a36
select id, model_id, model_type, prompt, status, coalesce(prediction_id, ''), assets, coalesce(error, ''), created_at, completed_at
from generations
order by created_at desc
limit $1::int;
`

const QDeleteOldGenerations = `--sql e7a1c4d9-6b3f-42e8-9d05-1c8a5f2b7e60
delete from generations
where id in (
  select id
  from generations
  order by created_at desc
  offset $1::int
);
`

const QFailStaleGenerations = `--sql b5d8e2f1-7c4a-49b6-8e03-6a1d9c3f5b82
update generations
set status = 'failed',
    error = 'abandoned before completion',
    updated_at = now(),
    completed_at = now()
where status in ('pending', 'in_progress')
  and created_at < now() - make_interval(secs => $1::double precision);
`
